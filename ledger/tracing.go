// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/delegato/ledger"

func startCallSpan(ctx context.Context, sender Address, method string) trace.Span {
	_, span := otel.Tracer(tracerName).Start(
		ctx,
		"ledger.call",
		trace.WithAttributes(
			attribute.String("delegato.sender", sender.String()),
			attribute.String("delegato.method", method),
		),
	)
	return span
}

func endCallSpan(span trace.Span, app App, round uint64, err error) {
	span.SetAttributes(
		// #nosec G115
		attribute.Int64("delegato.app_id", int64(app.ID)),
		attribute.String("delegato.kind", string(app.Kind)),
		// #nosec G115
		attribute.Int64("delegato.round", int64(round)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

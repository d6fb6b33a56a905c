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

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/delegato/event"
)

func TestEventBusSingleSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		assert.Equal(t, 999, evt.Data)
		assert.Equal(t, testEvtType, evt.Type)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	_, otherCh := eb.Subscribe("test.other")
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "data"))
	for _, ch := range []<-chan event.Event{sub1Ch, sub2Ch} {
		select {
		case evt := <-ch:
			assert.Equal(t, "data", evt.Data)
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}
	select {
	case <-otherCh:
		t.Fatalf("received event for a different type")
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	_, ok := <-subCh
	assert.False(t, ok, "subscriber channel should be closed after Unsubscribe")
}

func TestEventBusSubscribeFuncAndStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	var count atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		count.Add(1)
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	require.Eventually(
		t,
		func() bool { return count.Load() == 1 },
		time.Second,
		10*time.Millisecond,
	)
	eb.Stop()
	// Stop is idempotent
	eb.Stop()
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 2))
	assert.False(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, 3)))
	assert.Equal(t, int32(1), count.Load())
}

func TestSubscribeFuncPanicRecovery(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.panic"
	registry := prometheus.NewRegistry()
	eb := event.NewEventBus(registry, nil)
	defer eb.Stop()
	var received atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		if evt.Data == "panic" {
			panic("handler failure")
		}
		received.Add(1)
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "panic"))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "ok"))
	require.Eventually(
		t,
		func() bool { return received.Load() == 1 },
		time.Second,
		10*time.Millisecond,
	)
	require.Eventually(
		t,
		func() bool {
			count, err := testutil.GatherAndCount(registry, "delegato_event_handler_panics_total")
			return err == nil && count == 1
		},
		time.Second,
		10*time.Millisecond,
	)
}

func TestPublishAsync(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.async"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	require.True(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, event.VoteCastEvent{Approvals: 1})))
	select {
	case evt := <-subCh:
		data, ok := evt.Data.(event.VoteCastEvent)
		require.True(t, ok)
		assert.Equal(t, uint64(1), data.Approvals)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for async event")
	}
}

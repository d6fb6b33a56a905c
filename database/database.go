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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/delegato/database/plugin"
	"github.com/blinklabs-io/delegato/database/plugin/blob"
	"github.com/blinklabs-io/delegato/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register the built-in storage plugins
	_ "github.com/blinklabs-io/delegato/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/delegato/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the parameters for opening a Database. An empty DataDir
// selects in-memory storage
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

type metricsRegisterer interface {
	RegisterMetrics(prometheus.Registerer)
}

// Database combines a blob store for ledger state with a metadata store for
// receipts and history
type Database struct {
	config   *Config
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// BlobTxn starts a transaction against only the blob store
func (d *Database) BlobTxn(readWrite bool) *Txn {
	return NewBlobOnlyTxn(d, readWrite)
}

// MetadataTxn starts a transaction against only the metadata store
func (d *Database) MetadataTxn(readWrite bool) *Txn {
	return NewMetadataOnlyTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		metadataErr := d.metadata.Close()
		err = errors.Join(err, metadataErr)
	}
	// Close blob
	if d.blob != nil {
		blobErr := d.blob.Close()
		err = errors.Join(err, blobErr)
	}
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance with optional persistence using the provided data directory
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	if config.BlobPlugin == "" {
		config.BlobPlugin = DefaultBlobPlugin
	}
	if config.MetadataPlugin == "" {
		config.MetadataPlugin = DefaultMetadataPlugin
	}
	// Plugins are built from their registered options, so the data dir is
	// pushed into them before they are started
	if err := plugin.SetPluginOption(plugin.PluginTypeBlob, config.BlobPlugin, "data-dir", config.DataDir); err != nil {
		return nil, fmt.Errorf("configure blob plugin: %w", err)
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, config.MetadataPlugin, "data-dir", config.DataDir); err != nil {
		return nil, fmt.Errorf("configure metadata plugin: %w", err)
	}
	blobDb, err := blob.New(config.BlobPlugin)
	if err != nil {
		return nil, err
	}
	metadataDb, err := metadata.New(config.MetadataPlugin)
	if err != nil {
		_ = blobDb.Close()
		return nil, err
	}
	for _, store := range []any{blobDb, metadataDb} {
		if config.Logger != nil {
			if l, ok := store.(loggerSetter); ok {
				l.SetLogger(config.Logger)
			}
		}
		if config.PromRegistry != nil {
			if m, ok := store.(metricsRegisterer); ok {
				m.RegisterMetrics(config.PromRegistry)
			}
		}
	}
	db := &Database{
		config:   config,
		logger:   config.Logger,
		blob:     blobDb,
		metadata: metadataDb,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

// Copyright 2026 Blink Labs Software
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

// Package database provides persistent storage for the governance
// engine: a SQLite metadata store for proposals, ballots, and token
// checkpoints, plus a badger blob store for action calldata payloads.
package database

import (
	"errors"
	"io"
	"log/slog"
)

// Free-space warning threshold for the data directory
const diskSpaceWarningBytes = 1 << 30 // 1GB

// Database bundles the metadata and blob stores. It implements
// governance.ProposalStore and token.CheckpointStore.
type Database struct {
	logger   *slog.Logger
	blob     *BlobStore
	metadata *MetadataStore
	dataDir  string
}

// New creates a new database instance with optional persistence using the provided data directory
func New(
	logger *slog.Logger,
	dataDir string,
) (*Database, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadataDb, err := NewMetadataStore(dataDir, logger)
	if err != nil {
		return nil, err
	}
	blobDb, err := NewBlobStore(dataDir, logger)
	if err != nil {
		return nil, err
	}
	db := &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  dataDir,
	}
	if dataDir != "" {
		free, err := freeDiskSpace(dataDir)
		if err != nil {
			db.logger.Warn(
				"could not determine free disk space",
				"component", "database",
				"error", err,
			)
		} else if free < diskSpaceWarningBytes {
			db.logger.Warn(
				"low free disk space in data directory",
				"component", "database",
				"data_dir", dataDir,
				"free_bytes", free,
			)
		}
	}
	return db, nil
}

// Blob returns the underlying blob store instance
func (d *Database) Blob() *BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *MetadataStore {
	return d.metadata
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	metadataErr := d.metadata.Close()
	err = errors.Join(err, metadataErr)
	// Close blob
	blobErr := d.blob.Close()
	err = errors.Join(err, blobErr)
	return err
}

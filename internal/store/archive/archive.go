// Package archive provides the append-only content archive log, backed
// by Badger. Snapshots are written before destructive mutations and are
// never updated or deleted — the log only grows.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/townsquareapp/townsquare-server/internal/domain"
)

const keyPrefix = "archive:"

// Log wraps a Badger database holding content snapshots.
type Log struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open creates a new archive log at the given path.
func Open(path string, logger *slog.Logger) (*Log, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Snapshots are audit data; sync to disk
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Log{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// key is "archive:{contentID}:{archiveID}" so snapshots of one record
// cluster under a scannable prefix.
func key(contentID, archiveID string) []byte {
	return []byte(keyPrefix + contentID + ":" + archiveID)
}

// Append writes a snapshot record. Records are immutable: an archive id
// collision is a programming error and fails the append.
func (l *Log) Append(ctx context.Context, rec *domain.ArchiveRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal archive record: %w", err)
	}

	k := key(rec.Content.ID, rec.ArchiveID)
	return l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err == nil {
			return fmt.Errorf("archive record %s already exists", rec.ArchiveID)
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check existing key: %w", err)
		}
		if err := txn.Set(k, data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return nil
	})
}

// ListByContentID returns every snapshot taken of a content record, in
// key order (archive id order).
func (l *Log) ListByContentID(ctx context.Context, contentID string) ([]*domain.ArchiveRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(keyPrefix + contentID + ":")
	var records []*domain.ArchiveRecord

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec domain.ArchiveRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to unmarshal archive record: %w", err)
				}
				records = append(records, &rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []*domain.ArchiveRecord{}
	}
	return records, nil
}

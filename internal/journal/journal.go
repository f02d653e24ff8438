// Package journal keeps an append-only record of checkpoint and hook
// runs in a badger database, with hook diffs stored as zstd-compressed
// blobs alongside the entries.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	shared "rewind/shared/types"
	"rewind/shared/utils"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

var ErrEntryNotFound = errors.New("journal entry not found")

const (
	entryPrefix = "entry:"
	diffPrefix  = "diff:"
)

type Journal struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open creates or opens a journal at path. An empty path opens an
// in-memory journal, which tests use.
func Open(path string) (*Journal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable logging noise
	if path == "" {
		opts = opts.WithInMemory(true)
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &Journal{db: db, encoder: encoder, decoder: decoder}, nil
}

func (j *Journal) Close() error {
	j.encoder.Close()
	j.decoder.Close()
	return j.db.Close()
}

// Record appends an entry, assigning it an id and timestamp. When
// diffText is non-empty it is compressed and stored next to the entry.
func (j *Journal) Record(entry shared.JournalEntry, diffText string) (*shared.JournalEntry, error) {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	if diffText != "" {
		entry.DiffSize = int64(len(diffText))
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshaling entry: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		key := []byte(entryPrefix + utils.WorkspaceKey(entry.Workspace) + ":" + entry.ID)
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if diffText != "" {
			compressed := j.encoder.EncodeAll([]byte(diffText), nil)
			return txn.Set([]byte(diffPrefix+entry.ID), compressed)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storing entry: %w", err)
	}

	return &entry, nil
}

// List returns entries for a workspace, newest first, up to limit.
func (j *Journal) List(workspace string, limit int) ([]shared.JournalEntry, error) {
	prefix := []byte(entryPrefix + utils.WorkspaceKey(workspace) + ":")

	var entries []shared.JournalEntry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry shared.JournalEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	sort.Slice(entries, func(i, k int) bool {
		return entries[i].CreatedAt.After(entries[k].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Diff returns the stored diff text for an entry id.
func (j *Journal) Diff(entryID string) (string, error) {
	var compressed []byte
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(diffPrefix + entryID))
		if err == badger.ErrKeyNotFound {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}

	decompressed, err := j.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", fmt.Errorf("decompressing diff: %w", err)
	}
	return string(decompressed), nil
}

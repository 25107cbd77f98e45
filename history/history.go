// Package history keeps finished dictation sessions in a local badger
// database.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"go.aimuz.me/voxtype/langdetect"
)

var ErrNotFound = errors.New("session not found")

const (
	prefixEntry = "entry/"
	prefixTime  = "time/"
	prefixAudio = "audio/"
)

// Entry is one recorded session.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Typed     string    `json:"typed"`
	Language  string    `json:"language"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Samples   int       `json:"samples"`
	HasAudio  bool      `json:"has_audio"`
}

// Duration returns the length of the recorded audio.
func (e Entry) Duration() time.Duration {
	return time.Duration(e.Samples) * time.Second / codecRate
}

// Options configures a Store.
type Options struct {
	// Retention drops entries older than this. Zero keeps them forever.
	Retention time.Duration
	// KeepAudio stores the compressed recording alongside the text.
	KeepAudio bool
}

// Store persists session entries.
type Store struct {
	db   *badger.DB
	opts Options
}

// Open opens the database at dir. An empty dir keeps everything in memory.
func Open(dir string, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return &Store{db: db, opts: opts}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores e, tagging it with the detected language when none is set.
// audio is kept only when the store was opened with KeepAudio.
func (s *Store) Save(e Entry, audio []float32) error {
	if e.ID == "" {
		return errors.New("entry has no id")
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	if e.Language == "" {
		e.Language, _ = langdetect.Detect(e.Text)
	}
	e.Samples = len(audio)

	var blob []byte
	if s.opts.KeepAudio && len(audio) > 0 {
		var err error
		if blob, err = EncodeAudio(audio); err != nil {
			slog.Warn("compress session audio", "id", e.ID, "error", err)
		}
	}
	e.HasAudio = blob != nil

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(prefixEntry+e.ID, data)); err != nil {
			return err
		}
		if err := txn.SetEntry(s.entry(timeKey(e), []byte(e.ID))); err != nil {
			return err
		}
		if blob != nil {
			return txn.SetEntry(s.entry(prefixAudio+e.ID, blob))
		}
		return nil
	})
}

func (s *Store) entry(key string, value []byte) *badger.Entry {
	ent := badger.NewEntry([]byte(key), value)
	if s.opts.Retention > 0 {
		ent = ent.WithTTL(s.opts.Retention)
	}
	return ent
}

// timeKey sorts by start time, then id.
func timeKey(e Entry) string {
	return fmt.Sprintf("%s%020d/%s", prefixTime, e.StartedAt.UnixNano(), e.ID)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (Entry, error) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixEntry + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixTime)
		for it.Seek(append([]byte(prefixTime), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(ids) >= limit {
				break
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			ids = append(ids, string(val))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, err := s.Get(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Audio returns the decoded recording of session id.
func (s *Store) Audio(id string) ([]float32, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixAudio + id))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: no audio for %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return DecodeAudio(blob)
}

// Delete removes a session and its audio.
func (s *Store) Delete(id string) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{prefixEntry + id, timeKey(e), prefixAudio + id} {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

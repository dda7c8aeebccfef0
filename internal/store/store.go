// Package store keeps sweep progress in badger so an interrupted sweep can
// resume and finished results can be exported later.
//
// Keys:
//
//	r/<fingerprint>/<rule index, 8 bytes big endian>  -> Result JSON
//	s/<fingerprint>/<session id>                      -> Session JSON
//
// Big-endian indices make prefix iteration return rules in ascending order.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"lifegraph/internal/explore"
	"lifegraph/pkg/rules"
)

var (
	ErrClosed   = errors.New("store is closed")
	ErrNotFound = errors.New("record not found")
)

// Config selects where the database lives. An empty Path keeps everything
// in memory.
type Config struct {
	Path       string
	SyncWrites bool
	Logger     *slog.Logger
}

// Session describes one sweep invocation against a fingerprint.
type Session struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Started     time.Time `json:"started"`
	Degree      int       `json:"max_neighbors"`
	Rules       int       `json:"rules"`
	Options     any       `json:"options,omitempty"`
}

// Store implements explore.Progress on badger.
type Store struct {
	db *badger.DB
}

var _ explore.Progress = (*Store)(nil)

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, errors.Wrapf(err, "create store directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Store{db: db}, nil
}

// OpenInMemory is Open with an empty path.
func OpenInMemory() (*Store, error) {
	return Open(Config{})
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

func resultPrefix(fp string) []byte {
	return []byte("r/" + fp + "/")
}

func resultKey(fp string, idx rules.Index) []byte {
	k := resultPrefix(fp)
	return binary.BigEndian.AppendUint64(k, uint64(idx))
}

func sessionKey(fp, id string) []byte {
	return []byte("s/" + fp + "/" + id)
}

func (s *Store) check(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return ctx.Err()
}

// Put records the result of one rule.
func (s *Store) Put(ctx context.Context, fp string, r explore.Result) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	val, err := json.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "encode rule %d", r.Index)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resultKey(fp, r.Index), val)
	})
}

// Has reports whether a result for idx exists under fp.
func (s *Store) Has(ctx context.Context, fp string, idx rules.Index) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(resultKey(fp, idx))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Get loads the result for idx under fp.
func (s *Store) Get(ctx context.Context, fp string, idx rules.Index) (explore.Result, error) {
	var r explore.Result
	if err := s.check(ctx); err != nil {
		return r, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(fp, idx))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(ErrNotFound, "rule %d", idx)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	return r, err
}

// Results returns every result under fp in ascending rule order.
func (s *Store) Results(ctx context.Context, fp string) ([]explore.Result, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var out []explore.Result
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := resultPrefix(fp)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r explore.Result
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return errors.Wrapf(err, "decode %x", it.Item().Key())
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Count returns how many results exist under fp.
func (s *Store) Count(ctx context.Context, fp string) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := resultPrefix(fp)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// PutSession records session metadata.
func (s *Store) PutSession(ctx context.Context, sess Session) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	val, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(sess.Fingerprint, sess.ID), val)
	})
}

// Sessions lists sessions, oldest first. An empty fp lists all of them.
func (s *Store) Sessions(ctx context.Context, fp string) ([]Session, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	prefix := []byte("s/")
	if fp != "" {
		prefix = []byte("s/" + fp + "/")
	}
	var out []Session
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sess Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			}); err != nil {
				return err
			}
			out = append(out, sess)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out, err
}

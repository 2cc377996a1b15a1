package store

import (
	"database/sql"
	"time"

	"github.com/redactqc/redactqc/internal/redactqcerr"
)

// withWrite serializes all mutating operations through a single writer
// (spec.md §4.1 "at most one writer at a time"). Acquiring the writer lock
// past lockWait (default 5s, overridable per-call via timeout>0) fails with
// Busy per spec.md §4.1/§5 "Timeouts".
func (s *Store) withWrite(timeout time.Duration, fn func(tx *sql.Tx) error) error {
	wait := s.lockWait
	if timeout > 0 {
		wait = timeout
	}

	acquired := make(chan struct{})
	go func() {
		s.writeMu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(wait):
		// The goroutine above still holds (or will eventually hold) the
		// lock; it releases it once acquired since fn never runs for this
		// call. We simply report Busy to the caller.
		go func() {
			<-acquired
			s.writeMu.Unlock()
		}()
		return redactqcerr.NewBusy("write")
	}
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// withRead runs fn against the shared *sql.DB handle, relying on
// database/sql's own connection pool for concurrent, non-blocking readers.
func (s *Store) withRead(fn func() error) error {
	return fn()
}

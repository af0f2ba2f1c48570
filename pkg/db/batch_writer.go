package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// WriteFunc performs database writes inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

var ErrBatchWriterClosed = errors.New("batch writer closed")

// BatchWriter buffers writes and commits them in order, one transaction per
// batch, on a single background committer. After the first failed batch the
// remaining batches are dropped and Close reports that failure.
type BatchWriter struct {
	mu     sync.Mutex
	buf    []WriteFunc
	cap    int
	closed bool

	ctx      context.Context
	db       *sql.DB
	commitCh chan []WriteFunc
	wg       sync.WaitGroup

	// OnError, if set, is called once with the first failure.
	OnError func(error)

	errMu   sync.Mutex
	lastErr error
	batches int
}

// NewBatchWriter returns a writer that flushes every bufferSize submissions.
// Cancelling ctx aborts batches that have not been committed yet.
func NewBatchWriter(ctx context.Context, db *sql.DB, bufferSize int) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	bw := &BatchWriter{
		buf:      make([]WriteFunc, 0, bufferSize),
		cap:      bufferSize,
		ctx:      ctx,
		db:       db,
		commitCh: make(chan []WriteFunc, 2),
	}
	bw.wg.Add(1)
	go bw.committer()
	return bw
}

// Submit enqueues a write. It blocks while the committer is two batches behind.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	if err := bw.Err(); err != nil {
		return err
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.cap {
		bw.flushLocked()
	}
	return nil
}

// flushLocked assumes bw.mu is held.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.cap)
	bw.commitCh <- batch
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		if bw.Err() != nil {
			continue
		}
		err := bw.ctx.Err()
		if err == nil {
			err = bw.executeBatch(batch)
		}
		if err != nil {
			bw.fail(err)
			continue
		}
		bw.errMu.Lock()
		bw.batches++
		bw.errMu.Unlock()
	}
}

func (bw *BatchWriter) fail(err error) {
	bw.errMu.Lock()
	first := bw.lastErr == nil
	if first {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
	if first && bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) executeBatch(batch []WriteFunc) error {
	tx, err := bw.db.BeginTx(bw.ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(bw.ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

// Err returns the first failure seen so far.
func (bw *BatchWriter) Err() error {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

// Batches returns the number of committed batches.
func (bw *BatchWriter) Batches() int {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.batches
}

// Close flushes what is buffered, waits for the committer and returns the
// first failure, if any.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	bw.flushLocked()
	bw.mu.Unlock()

	close(bw.commitCh)
	bw.wg.Wait()
	return bw.Err()
}

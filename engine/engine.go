// Package engine implements the external sort: records are ingested
// into a bounded in-memory batch, oversized input spills to sorted
// temporary runs, and the runs are k-way merged into the output with
// a bounded fan-in.  Input that fits in memory never touches disk.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/brimdata/lsort/compare"
	"github.com/brimdata/lsort/pkg/skim"
	"github.com/brimdata/lsort/sorter"
	"github.com/pbnjay/memory"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	readBufferSize = 64 * 1024
	outBufferSize  = 64 * 1024

	// recordOverhead is charged against MaxBytes per record on top of
	// its payload: the batch's slice header plus the record's own
	// header and allocator rounding.  Without it a stream of empty or
	// tiny lines would never exert memory pressure.
	recordOverhead = 48

	// DefaultMaxRunFiles bounds how many runs may be live before a
	// spill forces a pre-merge pass.
	DefaultMaxRunFiles = 10
)

// ErrClosed is returned by Run when the engine was torn down by
// Cleanup while the sort was still in progress.
var ErrClosed = errors.New("sort engine closed")

// Config parameterizes one sort invocation.
type Config struct {
	// Mode selects the record ordering.
	Mode compare.Mode
	// Unique suppresses a record textually equal to the previously
	// emitted record.  The equality check is on the full record
	// text regardless of Mode.
	Unique bool
	// MaxRecords caps the number of records held in memory before a
	// batch is spilled.  Zero means no record-count cap.
	MaxRecords int
	// MaxBytes caps the record bytes held in memory before a batch
	// is spilled.  Each record is charged its payload plus a fixed
	// per-record overhead.  Zero means 1/8th of physical memory.
	MaxBytes int64
	// MaxRunFiles is the merge fan-in limit: when a spill would
	// bring the number of live runs past it, all live runs are
	// first pre-merged into one.  Zero means DefaultMaxRunFiles.
	// Values below 2 are rejected.
	MaxRunFiles int
	// TempDir is where run files are created.  Empty means the
	// system default.
	TempDir string
	// Sorter sorts in-memory batches.  Nil means a zero-value
	// sorter.Sorter.
	Sorter *sorter.Sorter
	// Logger receives phase timings and spill events.  Nil means no
	// logging.
	Logger *zap.Logger
}

// Engine sorts one record stream.  It is not reusable across calls to
// Run, but Cleanup may be invoked at any time from any goroutine to
// abort and reclaim temporary storage.
type Engine struct {
	conf   Config
	cmp    compare.Fn
	sorter *sorter.Sorter
	logger *zap.Logger

	mu     sync.Mutex
	runs   []*runFile
	closed bool
}

// New validates config and returns an engine.  Configuration errors
// are reported here, before any processing begins.
func New(conf Config) (*Engine, error) {
	if conf.MaxRunFiles == 0 {
		conf.MaxRunFiles = DefaultMaxRunFiles
	}
	if conf.MaxRunFiles < 2 {
		return nil, errors.New("max run files must be at least 2")
	}
	if conf.MaxRecords < 0 || conf.MaxBytes < 0 {
		return nil, errors.New("memory bounds cannot be negative")
	}
	if conf.MaxBytes == 0 {
		conf.MaxBytes = defaultMaxBytes()
	}
	s := conf.Sorter
	if s == nil {
		s = &sorter.Sorter{}
	}
	logger := conf.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		conf:   conf,
		cmp:    compare.New(conf.Mode),
		sorter: s,
		logger: logger,
	}, nil
}

func defaultMaxBytes() int64 {
	if total := memory.TotalMemory(); total != 0 {
		return int64(total / 8)
	}
	return 128 * 1024 * 1024
}

// Run reads newline-terminated records from r and writes them to w in
// increasing order per the configured Mode.  A final record lacking
// its newline is accepted and normalized, so every output record is
// newline-terminated exactly once.  Temporary storage is always
// reclaimed before Run returns, on success or failure.
func (e *Engine) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	defer e.Cleanup()
	start := time.Now()
	scanner := skim.NewScanner(r, make([]byte, readBufferSize), math.MaxInt)
	var batch [][]byte
	var nbytes int64
	var nrecords, nspills int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := scanner.ScanLine()
		if err != nil {
			return err
		}
		if line == nil {
			break
		}
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		rec := make([]byte, len(line))
		copy(rec, line)
		batch = append(batch, rec)
		nbytes += int64(len(rec)) + recordOverhead
		nrecords++
		if e.batchFull(len(batch), nbytes) {
			if err := e.spill(ctx, batch); err != nil {
				return err
			}
			// Drop the batch so its records are reclaimable;
			// each one already lives in the run file.
			batch = nil
			nbytes = 0
			nspills++
		}
	}
	e.logger.Info("read phase done",
		zap.Int("records", nrecords),
		zap.Int("spills", nspills),
		zap.Duration("elapsed", time.Since(start)))

	out := bufio.NewWriterSize(w, outBufferSize)
	emit := e.emitter(out)
	sortStart := time.Now()
	if e.liveCount() == 0 {
		// Common fast path: everything fit in memory.
		e.sorter.Sort(batch, e.cmp)
		e.logger.Info("in-memory sort done", zap.Duration("elapsed", time.Since(sortStart)))
		for _, rec := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(rec); err != nil {
				return err
			}
		}
		return out.Flush()
	}
	if len(batch) > 0 {
		if err := e.spill(ctx, batch); err != nil {
			return err
		}
	}
	if err := e.mergeRuns(ctx, e.liveRuns(), emit); err != nil {
		return err
	}
	e.logger.Info("merge done", zap.Duration("elapsed", time.Since(sortStart)))
	return out.Flush()
}

func (e *Engine) batchFull(records int, nbytes int64) bool {
	if e.conf.MaxRecords > 0 && records >= e.conf.MaxRecords {
		return true
	}
	return nbytes >= e.conf.MaxBytes
}

// emitter returns the output function for the final merge or direct
// emission, applying adjacent-duplicate suppression in unique mode.
// Order-equal records that differ textually are both kept.
func (e *Engine) emitter(out *bufio.Writer) func([]byte) error {
	write := func(rec []byte) error {
		if _, err := out.Write(rec); err != nil {
			return err
		}
		return out.WriteByte('\n')
	}
	if !e.conf.Unique {
		return write
	}
	var last []byte
	var any bool
	return func(rec []byte) error {
		if any && bytes.Equal(rec, last) {
			return nil
		}
		any = true
		last = append(last[:0], rec...)
		return write(rec)
	}
}

// spill sorts batch and writes it out as a new run.  If registering
// the run would exceed the fan-in limit, all live runs are first
// pre-merged into one, so the live count lands at two.
func (e *Engine) spill(ctx context.Context, batch [][]byte) error {
	start := time.Now()
	e.sorter.Sort(batch, e.cmp)
	if e.liveCount() >= e.conf.MaxRunFiles {
		e.logger.Info("fan-in limit reached, pre-merging runs",
			zap.Int("runs", e.liveCount()))
		if err := e.preMerge(ctx); err != nil {
			return err
		}
	}
	run, err := createRun(e.conf.TempDir)
	if err != nil {
		return err
	}
	if err := e.addRun(run); err != nil {
		run.closeAndRemove()
		return err
	}
	for _, rec := range batch {
		if err := run.write(rec); err != nil {
			return err
		}
	}
	if err := run.finish(); err != nil {
		return err
	}
	e.logger.Info("spilled run",
		zap.Int("records", len(batch)),
		zap.Int("live_runs", e.liveCount()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (e *Engine) addRun(r *runFile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.runs = append(e.runs, r)
	return nil
}

func (e *Engine) removeRun(r *runFile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, run := range e.runs {
		if run == r {
			e.runs = append(e.runs[:i], e.runs[i+1:]...)
			break
		}
	}
	return r.closeAndRemove()
}

func (e *Engine) liveRuns() []*runFile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*runFile(nil), e.runs...)
}

func (e *Engine) liveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runs)
}

// Cleanup synchronously closes and deletes every live run.  It is safe
// to call from a signal path while Run is in progress: the registry
// mutex serializes it with run creation and removal, in-flight I/O on
// a torn-down run fails and aborts Run, and no new runs can be
// registered afterward.
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	runs := e.runs
	e.runs = nil
	e.closed = true
	e.mu.Unlock()
	var err error
	for _, r := range runs {
		err = multierr.Append(err, r.closeAndRemove())
	}
	return err
}

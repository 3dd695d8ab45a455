package engine

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"
	"go.uber.org/multierr"
)

const runBufferSize = 64 * 1024

// runFile is one disk-resident sorted run of records.  Its lifecycle
// is write records, finish, then peek/advance until exhausted.  The
// backing file is anonymous temporary storage deleted exactly once by
// closeAndRemove, whether the run is drained by a merge, absorbed by
// a pre-merge, or torn down by Cleanup.
type runFile struct {
	file   *os.File
	writer *bufio.Writer
	reader *bufio.Reader
	// next is the one-record lookahead, a slice of buf, which grows
	// on demand to fit the longest record in the run.
	next  []byte
	buf   []byte
	done  bool
	close sync.Once
}

// createRun creates fresh temporary storage for a run in dir, or in
// the system temp directory if dir is empty.
func createRun(dir string) (*runFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "lsort-"+ksuid.New().String())
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}
	return &runFile{
		file:   f,
		writer: bufio.NewWriterSize(f, runBufferSize),
	}, nil
}

// write appends one record to the run.  Records must arrive in sorted
// order; the run does not check.
func (r *runFile) write(rec []byte) error {
	if _, err := r.writer.Write(rec); err != nil {
		return err
	}
	return r.writer.WriteByte('\n')
}

// finish flushes pending writes, rewinds the file, and primes the
// lookahead so the run is ready to merge.  Write errors from buffered
// I/O surface here.
func (r *runFile) finish() error {
	if err := r.writer.Flush(); err != nil {
		return err
	}
	r.writer = nil
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r.reader = bufio.NewReaderSize(r.file, runBufferSize)
	return r.advance()
}

// peek returns the run's current record without consuming it.  ok is
// false once the run is exhausted.
func (r *runFile) peek() ([]byte, bool) {
	return r.next, !r.done
}

// advance reads the next record into the lookahead buffer.
func (r *runFile) advance() error {
	r.buf = r.buf[:0]
	for {
		chunk, err := r.reader.ReadSlice('\n')
		r.buf = append(r.buf, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(r.buf) == 0 {
				r.done = true
				r.next = nil
				return nil
			}
			break
		}
		if err != nil {
			return err
		}
		break
	}
	r.next = bytes.TrimSuffix(r.buf, []byte{'\n'})
	return nil
}

// closeAndRemove closes and removes the underlying file.  It is
// idempotent so the normal merge path and a concurrent Cleanup can
// both call it; the storage is released exactly once.
func (r *runFile) closeAndRemove() error {
	var err error
	r.close.Do(func() {
		name := r.file.Name()
		err = multierr.Append(r.file.Close(), os.Remove(name))
	})
	return err
}

// Package skim provides a fast line scanner over a growable buffer.
// Lines are returned including their terminator and remain valid only
// until the next call, so callers that keep records must copy them.
package skim

import (
	"bytes"
	"errors"
	"io"
)

var ErrLineTooLong = errors.New("line exceeds maximum line size")

const minBufferSize = 4096

type Scanner struct {
	reader      io.Reader
	buf         []byte
	start       int
	end         int
	maxLineSize int
	eof         bool
}

// NewScanner returns a Scanner reading from reader.  buf is the
// initial scan buffer, which grows on demand for lines that outsize
// it, up to maxLineSize.
func NewScanner(reader io.Reader, buf []byte, maxLineSize int) *Scanner {
	if len(buf) < minBufferSize {
		buf = make([]byte, minBufferSize)
	}
	return &Scanner{
		reader:      reader,
		buf:         buf,
		maxLineSize: maxLineSize,
	}
}

// ScanLine returns the next line including its newline, or nil at end
// of input.  A final line with no newline is returned as is.  DOS line
// endings are normalized: a "\r" directly before the newline is
// dropped, and a line that is only "\r\n" is skipped.
func (s *Scanner) ScanLine() ([]byte, error) {
	for {
		line, err := s.scan()
		if line == nil || err != nil {
			return nil, err
		}
		if n := len(line); n >= 2 && line[n-1] == '\n' && line[n-2] == '\r' {
			if n == 2 {
				continue
			}
			line[n-2] = '\n'
			line = line[:n-1]
		}
		return line, nil
	}
}

func (s *Scanner) scan() ([]byte, error) {
	for {
		if i := bytes.IndexByte(s.buf[s.start:s.end], '\n'); i >= 0 {
			line := s.buf[s.start : s.start+i+1]
			s.start += i + 1
			return line, nil
		}
		if s.eof {
			if s.end > s.start {
				line := s.buf[s.start:s.end]
				s.start = s.end
				return line, nil
			}
			return nil, nil
		}
		if s.start > 0 {
			copy(s.buf, s.buf[s.start:s.end])
			s.end -= s.start
			s.start = 0
		}
		if s.end == len(s.buf) {
			if len(s.buf) >= s.maxLineSize {
				return nil, ErrLineTooLong
			}
			size := len(s.buf) * 2
			if size < len(s.buf) || size > s.maxLineSize {
				size = s.maxLineSize
			}
			buf := make([]byte, size)
			copy(buf, s.buf[:s.end])
			s.buf = buf
		}
		n, err := s.reader.Read(s.buf[s.end:])
		s.end += n
		if err == io.EOF {
			s.eof = true
		} else if err != nil {
			return nil, err
		}
	}
}

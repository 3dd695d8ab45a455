// Package compare provides the ordering policies for lsort records.
// A record is one input line without its trailing newline.
package compare

import (
	"bytes"
	"fmt"
	"math"
)

// Mode selects how two records are ordered.  It is fixed for the
// duration of one sort invocation.
type Mode int

const (
	// ModeString orders records by lexicographic byte comparison.
	ModeString Mode = iota
	// ModeNumeric orders records by their leading numeric token,
	// with ties broken by string comparison.  Records with no
	// leading number sort before all records with one.
	ModeNumeric
	// ModeQuotedNumeric is ModeNumeric but a single leading double
	// quote is skipped before parsing, so numbers inside quoted CSV
	// fields order numerically.
	ModeQuotedNumeric
)

func (m Mode) String() string {
	switch m {
	case ModeString:
		return "string"
	case ModeNumeric:
		return "numeric"
	case ModeQuotedNumeric:
		return "quoted-numeric"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Fn compares two records, returning a negative number, zero, or a
// positive number as a is less than, equal to, or greater than b.
// A Fn is a total order: anti-symmetric and transitive.
type Fn func(a, b []byte) int

// New returns the comparison function for mode.
func New(mode Mode) Fn {
	switch mode {
	case ModeNumeric:
		return func(a, b []byte) int { return numCompare(a, b, false) }
	case ModeQuotedNumeric:
		return func(a, b []byte) int { return numCompare(a, b, true) }
	}
	return bytes.Compare
}

// noNumber is the value assigned to a record with no parseable leading
// number so that it sorts before every record that has one (a CSV
// header stays at the top of the file).
const noNumber = -math.MaxFloat64

func numCompare(a, b []byte, quoted bool) int {
	v1 := keyOf(a, quoted)
	v2 := keyOf(b, quoted)
	if v1 == v2 {
		return bytes.Compare(a, b)
	}
	if v1 < v2 {
		return -1
	}
	return 1
}

func keyOf(rec []byte, quoted bool) float64 {
	i := 0
	for i < len(rec) && isSpace(rec[i]) {
		i++
	}
	if quoted && i < len(rec) && rec[i] == '"' {
		// No need to handle a trailing quote as it just
		// terminates the number.
		i++
	}
	v, ok := parseNumber(rec[i:])
	if !ok {
		return noNumber
	}
	return v
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f' || c == '\r' || c == '\n'
}

package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in  string
		val float64
		ok  bool
	}{
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"+", 0, false},
		{".", 0, false},
		{"e5", 0, false},
		{"0", 0, true},
		{"42", 42, true},
		{"-5", -5, true},
		{"+7", 7, true},
		{"3.25", 3.25, true},
		{".5", 0.5, true},
		{"-.5", -0.5, true},
		{"2.", 2, true},
		{"1e2", 100, true},
		{"1E2", 100, true},
		{"1e-2", 0.01, true},
		{"1e+2", 100, true},
		{"5e", 5, true},
		{"5e-", 5, true},
		{"0e400", 0, true},
		{"0.0e500", 0, true},
		{"-0e999", 0, true},
		{"12abc", 12, true},
		{"3.5,rest-of-line", 3.5, true},
	}
	for _, c := range cases {
		val, ok := parseNumber([]byte(c.in))
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			assert.InDelta(t, c.val, val, 1e-9, "input %q", c.in)
		}
	}
}

package sorter

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/brimdata/lsort/compare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reference(recs [][]byte, cmp compare.Fn) [][]byte {
	out := make([][]byte, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })
	return out
}

func clone(recs [][]byte) [][]byte {
	out := make([][]byte, len(recs))
	copy(out, recs)
	return out
}

func randomLines(r *rand.Rand, n, maxLen int) [][]byte {
	recs := make([][]byte, n)
	for i := range recs {
		line := make([]byte, r.Intn(maxLen+1))
		for j := range line {
			line[j] = byte('a' + r.Intn(26))
		}
		recs[i] = line
	}
	return recs
}

func numericLines(r *rand.Rand, n int) [][]byte {
	recs := make([][]byte, n)
	for i := range recs {
		recs[i] = []byte(fmt.Sprintf("%d,field%d", r.Intn(1000)-500, r.Intn(10)))
	}
	return recs
}

func TestSortPatterns(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	patterns := map[string]func(n int) [][]byte{
		"random": func(n int) [][]byte { return randomLines(r, n, 12) },
		"sorted": func(n int) [][]byte {
			recs := randomLines(r, n, 12)
			Sort(recs, compare.New(compare.ModeString))
			return recs
		},
		"reversed": func(n int) [][]byte {
			recs := randomLines(r, n, 12)
			Sort(recs, compare.New(compare.ModeString))
			for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
				recs[i], recs[j] = recs[j], recs[i]
			}
			return recs
		},
		"allequal": func(n int) [][]byte {
			recs := make([][]byte, n)
			for i := range recs {
				recs[i] = []byte("same")
			}
			return recs
		},
		"fewdistinct": func(n int) [][]byte {
			recs := make([][]byte, n)
			for i := range recs {
				recs[i] = []byte{byte('a' + r.Intn(3))}
			}
			return recs
		},
		"sawtooth": func(n int) [][]byte {
			recs := make([][]byte, n)
			for i := range recs {
				recs[i] = []byte(fmt.Sprintf("%04d", i%7))
			}
			return recs
		},
		"numeric": func(n int) [][]byte { return numericLines(r, n) },
	}
	cmp := compare.New(compare.ModeString)
	for name, gen := range patterns {
		for _, n := range []int{0, 1, 2, 24, 25, 100, 1000, 20000} {
			recs := gen(n)
			want := reference(recs, cmp)
			got := clone(recs)
			Sort(got, cmp)
			require.Equal(t, want, got, "pattern %s, n=%d", name, n)
		}
	}
}

func TestSortNumericMode(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	cmp := compare.New(compare.ModeNumeric)
	recs := numericLines(r, 5000)
	recs = append(recs, []byte("header,line"), []byte(""), []byte("another header"))
	want := reference(recs, cmp)
	Sort(recs, cmp)
	assert.Equal(t, want, recs)
	// No-number lines ended up first.
	assert.Equal(t, []byte(""), recs[0])
}

func TestSortIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	cmp := compare.New(compare.ModeString)
	recs := randomLines(r, 3000, 8)
	Sort(recs, cmp)
	again := clone(recs)
	Sort(again, cmp)
	assert.Equal(t, recs, again)
}

func TestSortParallel(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	cmp := compare.New(compare.ModeString)
	recs := randomLines(r, 200000, 10)
	want := reference(recs, cmp)
	s := &Sorter{Parallelism: 8}
	s.Sort(recs, cmp)
	require.Equal(t, want, recs)
}

func TestSortRobustPivots(t *testing.T) {
	// A tiny imbalance tolerance escalates to median-of-25 pivots
	// almost immediately; the result must be unaffected.
	r := rand.New(rand.NewSource(5))
	cmp := compare.New(compare.ModeString)
	recs := randomLines(r, 30000, 6)
	want := reference(recs, cmp)
	s := &Sorter{MaxImbalance: 0.01}
	s.Sort(recs, cmp)
	require.Equal(t, want, recs)
}

func TestSortDepthFallback(t *testing.T) {
	// A depth multiplier of 1 drives even well-behaved input into
	// the heapsort escape valve; the result must be unaffected.
	r := rand.New(rand.NewSource(6))
	cmp := compare.New(compare.ModeString)
	recs := randomLines(r, 30000, 6)
	want := reference(recs, cmp)
	s := &Sorter{DepthMult: 1}
	s.Sort(recs, cmp)
	require.Equal(t, want, recs)
}

func TestHeapsort(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cmp := compare.New(compare.ModeString)
	for _, n := range []int{0, 1, 2, 3, 10, 1000} {
		recs := randomLines(r, n, 8)
		want := reference(recs, cmp)
		heapsort(recs, cmp)
		require.Equal(t, want, recs, "n=%d", n)
	}
}

func TestPartition(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	cmp := compare.New(compare.ModeString)
	for trial := 0; trial < 100; trial++ {
		recs := randomLines(r, 25+r.Intn(200), 3)
		pivot := string(recs[0])
		lt, gt := partition(recs, cmp)
		require.LessOrEqual(t, lt, gt)
		for i, rec := range recs {
			switch {
			case i < lt:
				assert.Negative(t, cmp(rec, []byte(pivot)))
			case i < gt:
				assert.Zero(t, cmp(rec, []byte(pivot)))
			default:
				assert.Positive(t, cmp(rec, []byte(pivot)))
			}
		}
	}
}

func TestNearlySorted(t *testing.T) {
	cmp := compare.New(compare.ModeString)
	q := &quicksorter{cmp: cmp}
	recs := [][]byte{[]byte("a"), []byte("b"), []byte("d"), []byte("c"), []byte("e")}
	require.True(t, q.nearlySorted(recs))
	assert.Equal(t, reference(recs, cmp), recs)

	r := rand.New(rand.NewSource(9))
	shuffled := randomLines(r, 1000, 5)
	assert.False(t, q.nearlySorted(shuffled))
}

func TestMedianNetworks(t *testing.T) {
	cmp := compare.New(compare.ModeString)
	recs := [][]byte{[]byte("d"), []byte("a"), []byte("c"), []byte("e"), []byte("b")}
	assert.Equal(t, "c", string(recs[med5(recs, 0, 1, 2, 3, 4, cmp)]))
	assert.Equal(t, "c", string(recs[med3(recs, 0, 1, 2, cmp)]))

	r := rand.New(rand.NewSource(10))
	big := randomLines(r, 10000, 4)
	i := approxMedian(big, cmp)
	require.True(t, i >= 0 && i < len(big))
}

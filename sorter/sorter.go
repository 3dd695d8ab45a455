// Package sorter implements the adaptive, parallel, in-memory sort
// used by the lsort engine.  The algorithm is an introspective
// quicksort: a guarded insertion pass catches nearly-sorted input, a
// Bentley-McIlroy three-way partition handles heavily duplicated keys,
// pivot quality is tracked so that degenerate splits escalate to a
// robust median-of-25 pivot, and a partition that exceeds its
// iteration budget is finished with heapsort, guaranteeing O(n log n)
// for any input.  Large partitions are handed to a bounded worker
// pool sized to the host's logical parallelism.
package sorter

import (
	"math/bits"
	"runtime"

	"github.com/brimdata/lsort/compare"
)

const (
	// Partitions below this size are insertion sorted.
	insertionThreshold = 25
	// The guarded insertion pass gives up after this many
	// out-of-place elements.
	maxInsertionMoves = 2
	// Partitions above this size select pivots with a median of 9;
	// between insertionThreshold and this, a plain median of 3.
	median9Threshold = 40
	// Partitions above this size always use the median-of-25
	// block reduction for pivot selection.
	median25Threshold = 4096

	defaultMaxImbalance = 0.95
	defaultDepthMult    = 3
)

// Sorter sorts record slices.  The zero value is ready to use and is
// what the package-level Sort uses.
type Sorter struct {
	// Parallelism bounds the number of concurrently sorting
	// goroutines, including the caller.  Zero or negative means
	// runtime.GOMAXPROCS(0).
	Parallelism int
	// MaxImbalance is the partition imbalance, normalized to the
	// partition size, beyond which pivot selection escalates to the
	// median-of-25 strategy.  Zero means the default of 0.95.
	MaxImbalance float64
	// DepthMult scales the iteration budget (DepthMult*log2(n))
	// after which a partition falls back to heapsort.  Zero means
	// the default of 3.
	DepthMult int
}

// Sort sorts recs in place into non-decreasing order per cmp using a
// zero-value Sorter.  The sort is not stable.
func Sort(recs [][]byte, cmp compare.Fn) {
	var s Sorter
	s.Sort(recs, cmp)
}

// Sort sorts recs in place into non-decreasing order per cmp.  It
// blocks until all work handed to the pool has completed.
func (s *Sorter) Sort(recs [][]byte, cmp compare.Fn) {
	if len(recs) <= 1 {
		return
	}
	parallelism := s.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	maxImbalance := s.MaxImbalance
	if maxImbalance <= 0 {
		maxImbalance = defaultMaxImbalance
	}
	depthMult := s.DepthMult
	if depthMult <= 0 {
		depthMult = defaultDepthMult
	}
	// The caller's goroutine occupies one slot.
	pool := newPool(parallelism - 1)
	q := &quicksorter{
		cmp:          cmp,
		pool:         pool,
		maxImbalance: maxImbalance,
		depthMult:    depthMult,
	}
	q.sort(recs)
	pool.wait()
}

type quicksorter struct {
	cmp          compare.Fn
	pool         *pool
	maxImbalance float64
	depthMult    int
}

// sort is one conceptual sort invocation over a.  It recurses on the
// smaller partition and loops on the larger one so the stack depth is
// O(log n).  The iteration counter and the robust-pivot escalation
// are local to the invocation, as in the original introsort.
func (q *quicksorter) sort(a [][]byte) {
	n := len(a)
	if n <= 1 {
		return
	}
	cmp := q.cmp
	var itn int
	maxItn := q.depthMult * ilog2(n)
	robust := false
	for {
		n = len(a)
		if n < insertionThreshold {
			insertionSort(a, cmp)
			return
		}
		if q.nearlySorted(a) {
			return
		}
		if itn++; itn > maxItn {
			// Too many partitioning rounds for this
			// invocation: adversarial input.  Heapsort the
			// whole remaining partition.
			heapsort(a, cmp)
			return
		}
		pivot := q.selectPivot(a, robust)
		a[0], a[pivot] = a[pivot], a[0]
		lt, gt := partition(a, cmp)
		// Pivot quality: how lopsided the <
		// and > partitions came out, normalized to the
		// partition size.  A bad split means the sampled
		// pivots are being defeated, so switch to the robust
		// median-of-25 for the rest of this invocation.
		if d := lt - (n - gt); abs(d) > int(q.maxImbalance*float64(n)) {
			robust = true
		}
		left, right := a[:lt], a[gt:]
		smaller, larger := left, right
		if len(smaller) > len(larger) {
			smaller, larger = larger, smaller
		}
		if len(smaller) > 1 {
			if !q.trySpawn(smaller, n) {
				q.sort(smaller)
			}
		}
		if len(larger) <= 1 {
			return
		}
		a = larger
	}
}

// trySpawn hands sub to a pool worker when a slot is free and sub is
// big enough that the handoff amortizes: at least 1/16th of the
// current partition and above an absolute floor.
func (q *quicksorter) trySpawn(sub [][]byte, parentLen int) bool {
	if len(sub) < minParallel || len(sub) < parentLen/parallelDiv {
		return false
	}
	return q.pool.tryRun(func() { q.sort(sub) })
}

// partition performs a Bentley-McIlroy three-way split around the
// pivot at a[0].  Elements equal to the pivot are collected at both
// ends during the scan and swapped into the middle afterward.  It
// returns lt and gt such that a[:lt] < pivot, a[lt:gt] == pivot, and
// a[gt:] > pivot.
func partition(a [][]byte, cmp compare.Fn) (int, int) {
	n := len(a)
	pa, pb := 1, 1
	pc, pd := n-1, n-1
	for {
		for pb <= pc {
			r := cmp(a[pb], a[0])
			if r > 0 {
				break
			}
			if r == 0 {
				a[pa], a[pb] = a[pb], a[pa]
				pa++
			}
			pb++
		}
		for pb <= pc {
			r := cmp(a[pc], a[0])
			if r < 0 {
				break
			}
			if r == 0 {
				a[pc], a[pd] = a[pd], a[pc]
				pd--
			}
			pc--
		}
		if pb > pc {
			break
		}
		a[pb], a[pc] = a[pc], a[pb]
		pb++
		pc--
	}
	d := min(pa, pb-pa)
	vecswap(a, 0, pb-d, d)
	d = min(pd-pc, n-pd-1)
	vecswap(a, pb, n-d, d)
	lt := pb - pa
	gt := n - (pd - pc)
	return lt, gt
}

// vecswap exchanges a[i:i+n] with a[j:j+n].
func vecswap(a [][]byte, i, j, n int) {
	for ; n > 0; n-- {
		a[i], a[j] = a[j], a[i]
		i++
		j++
	}
}

func insertionSort(a [][]byte, cmp compare.Fn) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && cmp(a[j-1], a[j]) > 0; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

// nearlySorted attempts a single insertion pass over a, giving up once
// more than maxInsertionMoves elements are found out of place.  It
// returns true if the pass completed, meaning a is now sorted.  This
// captures already-sorted and almost-sorted partitions cheaply; an
// aborted pass still leaves a valid permutation behind, and the little
// shuffling it did tends to break up patterns that defeat quicksort.
func (q *quicksorter) nearlySorted(a [][]byte) bool {
	cmp := q.cmp
	var moves int
	for i := 1; i < len(a); i++ {
		if cmp(a[i-1], a[i]) > 0 {
			if moves++; moves > maxInsertionMoves {
				return false
			}
		}
		for j := i; j > 0 && cmp(a[j-1], a[j]) > 0; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
	return true
}

func ilog2(n int) int {
	return bits.Len(uint(n)) - 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

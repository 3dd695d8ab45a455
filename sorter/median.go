package sorter

import "github.com/brimdata/lsort/compare"

// selectPivot returns the index of the partitioning pivot for a.
// Small partitions use a median of 3, medium ones a median of 3
// medians of 3 over 9 evenly spaced elements, and large partitions
// (or any partition after a quality escalation) an approximate median
// from a recursive median-of-5 block reduction.  The medians are
// computed with fixed comparison networks.
func (q *quicksorter) selectPivot(a [][]byte, robust bool) int {
	n := len(a)
	if robust || n > median25Threshold {
		return approxMedian(a, q.cmp)
	}
	lo, mid, hi := 0, n/2, n-1
	if n > median9Threshold {
		d := n / 8
		lo = med3(a, lo, lo+d, lo+2*d, q.cmp)
		mid = med3(a, mid-d, mid, mid+d, q.cmp)
		hi = med3(a, hi-2*d, hi-d, hi, q.cmp)
	}
	return med3(a, lo, mid, hi, q.cmp)
}

// med3 returns the index of the median of a[i], a[j], and a[k].
func med3(a [][]byte, i, j, k int, cmp compare.Fn) int {
	if cmp(a[i], a[j]) < 0 {
		if cmp(a[j], a[k]) < 0 {
			return j
		}
		if cmp(a[i], a[k]) < 0 {
			return k
		}
		return i
	}
	if cmp(a[j], a[k]) > 0 {
		return j
	}
	if cmp(a[i], a[k]) < 0 {
		return i
	}
	return k
}

// med5 returns the index of the median of the five elements at the
// given indices, using a fixed 9-comparator sorting network for 5
// elements and picking the middle wire.
func med5(a [][]byte, i0, i1, i2, i3, i4 int, cmp compare.Fn) int {
	s := [5]int{i0, i1, i2, i3, i4}
	exch := func(x, y int) {
		if cmp(a[s[x]], a[s[y]]) > 0 {
			s[x], s[y] = s[y], s[x]
		}
	}
	exch(0, 1)
	exch(3, 4)
	exch(2, 4)
	exch(2, 3)
	exch(0, 3)
	exch(0, 2)
	exch(1, 4)
	exch(1, 3)
	exch(1, 2)
	return s[2]
}

// approxMedian computes an approximate median of a, for use as a
// robust pivot.  It repeatedly reduces the partition by swapping the
// median of each block of five into the leading fifth, then resolves
// the survivors with the median-of-25 network.  The reduction reorders
// a as a side effect, which empirically improves the quality of
// subsequent partitions.  Requires len(a) >= insertionThreshold.
func approxMedian(a [][]byte, cmp compare.Fn) int {
	n := len(a)
	for n > 25 {
		var m int
		for i := 0; i+5 <= n; i += 5 {
			med := med5(a, i, i+1, i+2, i+3, i+4, cmp)
			a[m], a[med] = a[med], a[m]
			m++
		}
		// Any leftover tail elements just drop out of the
		// candidate set; they were never better samples.
		n = m
	}
	return med25(a, n, cmp)
}

// med25 returns the index of the median of medians of up to 25
// candidates at the front of a.  Requires n >= 5.
func med25(a [][]byte, n int, cmp compare.Fn) int {
	groups := n / 5
	var meds [5]int
	for g := 0; g < groups; g++ {
		i := g * 5
		meds[g] = med5(a, i, i+1, i+2, i+3, i+4, cmp)
	}
	switch groups {
	case 1:
		return meds[0]
	case 2:
		// No majority among two medians; either is a fair
		// sample, take the smaller.
		if cmp(a[meds[0]], a[meds[1]]) < 0 {
			return meds[0]
		}
		return meds[1]
	case 3:
		return med3(a, meds[0], meds[1], meds[2], cmp)
	case 4:
		return med3(a, meds[0], meds[1], meds[2], cmp)
	default:
		return med5(a, meds[0], meds[1], meds[2], meds[3], meds[4], cmp)
	}
}

package sorter

import "github.com/brimdata/lsort/compare"

// heapsort sorts a in place in guaranteed O(n log n), both average and
// worst case (Knuth, Vol. 3, page 145).  It is roughly an order of
// magnitude slower than the quicksort path on average, so it serves
// only as the escape valve when partitioning stops making progress.
func heapsort(a [][]byte, cmp compare.Fn) {
	n := len(a)
	if n <= 1 {
		return
	}
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(a, i, n, cmp)
	}
	for end := n - 1; end > 0; end-- {
		a[0], a[end] = a[end], a[0]
		siftDown(a, 0, end, cmp)
	}
}

// siftDown restores the max-heap property for the subtree rooted at i,
// considering only a[:n].  The larger child is always promoted, per
// the usual bottom-up refinement.
func siftDown(a [][]byte, i, n int, cmp compare.Fn) {
	root := a[i]
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if child+1 < n && cmp(a[child], a[child+1]) < 0 {
			child++
		}
		if cmp(root, a[child]) >= 0 {
			break
		}
		a[i] = a[child]
		i = child
	}
	a[i] = root
}

package sph

import "sync"

// forEachRange calls fn over contiguous index ranges covering [0, n), one
// range per worker, and returns once every call is done. The last range
// takes the remainder.
func forEachRange(n, workers int, fn func(lo, hi int)) {
	if workers < 2 || n < 2*workers {
		fn(0, n)
		return
	}

	size := n / workers
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		lo, hi := w*size, (w+1)*size
		if w == workers-1 {
			hi = n
		}
		go func(lo, hi int) {
			fn(lo, hi)
			wg.Done()
		}(lo, hi)
	}
	wg.Wait()
}

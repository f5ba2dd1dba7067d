// Package parallel provides the data-parallel row scheduler used by the
// GTIL engine. Work items are split into contiguous chunks, one per worker,
// so each goroutine touches a disjoint slice of the output buffer.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items into contiguous ranges and executes fn on each
// range concurrently, using at most numWorkers goroutines. numWorkers <= 0
// means "use all available CPU cores". fn must be safe to call from
// multiple goroutines on disjoint ranges.
func Parallelize(items, numWorkers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > items {
		numWorkers = items
	}
	if numWorkers == 1 {
		fn(0, items)
		return
	}

	// Ceiling division so the last chunk absorbs the remainder.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

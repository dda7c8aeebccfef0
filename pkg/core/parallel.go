package core

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Span is a half-open index range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Len returns the number of indices covered by the span.
func (s Span) Len() int { return s.Hi - s.Lo }

// Partition splits [0, n) into at most parts contiguous spans of near-equal
// length. It never returns empty spans.
func Partition(n, parts int) []Span {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	spans := make([]Span, 0, parts)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, Span{Lo: lo, Hi: min(lo+size, n)})
	}
	return spans
}

// Workers resolves a worker count, treating values <= 0 as "all CPUs".
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// ParallelFor runs fn once per span of a partition of [0, n). With a single
// span fn runs on the calling goroutine. fn receives the span's ordinal so
// callers can keep per-span scratch state and merge it after return; spans
// never overlap, so writes to disjoint per-index slots need no locking.
func ParallelFor(n, workers int, fn func(part int, span Span)) {
	spans := Partition(n, workers)
	if len(spans) <= 1 {
		for i, s := range spans {
			fn(i, s)
		}
		return
	}
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, s := range spans {
		eg.Go(func() error {
			fn(i, s)
			return nil
		})
	}
	_ = eg.Wait()
}

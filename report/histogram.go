package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tmc/lit/littest"
)

// WriteHistogram renders the --time-tests histogram: elapsed times
// bucketed into up to ten equal-width ranges from zero to the slowest
// time, one bar per bucket,
// preceded by the slowest tests in descending order.
func WriteHistogram(w *strings.Builder, tests []*littest.Test) {
	type timed struct {
		name    string
		elapsed float64
	}
	var items []timed
	for _, t := range tests {
		if r := t.Result(); r != nil && r.HasElapsed {
			items = append(items, timed{name: t.FullName(), elapsed: r.Elapsed})
		}
	}
	if len(items) == 0 {
		return
	}
	sort.Slice(items, func(i, j int) bool { return items[i].elapsed > items[j].elapsed })

	w.WriteString("Slowest Tests:\n")
	top := items
	if len(top) > 20 {
		top = top[:20]
	}
	for _, it := range top {
		fmt.Fprintf(w, "%.2fs: %s\n", it.elapsed, it.name)
	}

	maxElapsed := items[0].elapsed
	if maxElapsed <= 0 {
		return
	}
	buckets := 10
	if len(items) < buckets {
		buckets = len(items)
	}
	counts := make([]int, buckets)
	width := maxElapsed / float64(buckets)
	for _, it := range items {
		idx := int(math.Floor(it.elapsed / width))
		if idx >= buckets {
			idx = buckets - 1
		}
		counts[idx]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	w.WriteString("Tests Times:\n")
	w.WriteString("--------------------------------------------------------------------------\n")
	w.WriteString("[    Range    ] :: [               Percentage               ] :: [Count]\n")
	w.WriteString("--------------------------------------------------------------------------\n")
	for i, c := range counts {
		lo := width * float64(i)
		hi := width * float64(i+1)
		barLen := 0
		if maxCount > 0 {
			barLen = c * 40 / maxCount
		}
		bar := strings.Repeat("*", barLen) + strings.Repeat(" ", 40-barLen)
		fmt.Fprintf(w, "[%6.2fs,%6.2fs) :: [%s] :: [%5d]\n", lo, hi, bar, c)
	}
	w.WriteString("--------------------------------------------------------------------------\n")
}

package discovery

import (
	"os"
	"sort"

	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

// ApplyFilter keeps only tests whose FullName matches lit.Filter.
func ApplyFilter(tests []*littest.Test, lit *litconfig.LitConfig) []*littest.Test {
	if lit.Filter == nil {
		return tests
	}
	out := tests[:0:0]
	for _, t := range tests {
		if lit.Filter.MatchString(t.FullName()) {
			out = append(out, t)
		}
	}
	return out
}

// ApplyShard keeps the K-th of M stripes, per spec §8 scenario 10:
// test at 0-based index i survives iff i % NumShards == RunShard
// (RunShard itself 0-based; cmd/lit converts the 1-based --run-shard
// flag before storing it).
func ApplyShard(tests []*littest.Test, lit *litconfig.LitConfig) []*littest.Test {
	if lit.NumShards <= 1 {
		return tests
	}
	out := tests[:0:0]
	for i, t := range tests {
		if i%lit.NumShards == lit.RunShard {
			out = append(out, t)
		}
	}
	return out
}

// ApplyMaxTests truncates the list to lit.MaxTests, after ordering.
func ApplyMaxTests(tests []*littest.Test, lit *litconfig.LitConfig) []*littest.Test {
	if lit.MaxTests <= 0 || len(tests) <= lit.MaxTests {
		return tests
	}
	return tests[:lit.MaxTests]
}

// Order partitions tests by is_early (early first) and sorts each
// partition lexicographically by full name, per spec §4.8. When
// incremental is set the sort key is descending file mtime instead;
// when shuffle is set the caller-supplied rand source permutes the
// final order.
func Order(tests []*littest.Test, lit *litconfig.LitConfig, shuffle func([]*littest.Test)) []*littest.Test {
	early := tests[:0:0]
	late := tests[:0:0]
	for _, t := range tests {
		if t.Config.IsEarly {
			early = append(early, t)
		} else {
			late = append(late, t)
		}
	}

	var less func(ts []*littest.Test) func(i, j int) bool
	if lit.Incremental {
		less = func(ts []*littest.Test) func(i, j int) bool {
			mtimes := make([]int64, len(ts))
			for i, t := range ts {
				if info, err := os.Stat(t.FilePath); err == nil {
					mtimes[i] = info.ModTime().UnixNano()
				}
			}
			return func(i, j int) bool { return mtimes[i] > mtimes[j] }
		}
	} else {
		less = func(ts []*littest.Test) func(i, j int) bool {
			return func(i, j int) bool { return ts[i].FullName() < ts[j].FullName() }
		}
	}

	sort.SliceStable(early, less(early))
	sort.SliceStable(late, less(late))

	ordered := append(early, late...)
	if lit.Shuffle && shuffle != nil {
		shuffle(ordered)
	}
	return ordered
}

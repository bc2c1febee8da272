package model

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/cockroachdb/errors"
)

// NewRand returns the generator used for every random step of a training run.
// Sampling, splitting and bootstrapping draw from the same stream in a fixed
// order, so one seed reproduces the whole run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Sample returns round(frac*n) distinct row indices in ascending order. A
// fraction outside (0, 1), NaN included, keeps every row.
func Sample(n int, frac float64, rng *rand.Rand) []int {
	if !(frac > 0 && frac < 1) {
		return identity(n)
	}
	k := int(math.Round(frac * float64(n)))
	idx := rng.Perm(n)[:k]
	slices.Sort(idx)
	return idx
}

// StratifiedSplit partitions row indices into train and test sets, holding out
// testSize of each class so both sides keep the label prevalence. Each class
// contributes at least one test row when it has two or more rows.
func StratifiedSplit(labels []int, testSize float64, rng *rand.Rand) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.Newf("test size %v must be in (0, 1)", testSize)
	}
	if len(labels) < 2 {
		return nil, nil, errors.Newf("need at least 2 rows to split, got %d", len(labels))
	}

	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(testSize * float64(len(idx))))
		if nTest == 0 && len(idx) >= 2 {
			nTest = 1
		}
		if nTest == len(idx) {
			nTest--
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}

	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

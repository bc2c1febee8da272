package model

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imbalancedLabels(n int, every int) []int {
	labels := make([]int, n)
	for i := range labels {
		if i%every == 0 {
			labels[i] = 1
		}
	}
	return labels
}

func TestStratifiedSplit_PreservesPrevalence(t *testing.T) {
	labels := imbalancedLabels(1000, 5) // 20% positive
	train, test, err := StratifiedSplit(labels, 0.2, NewRand(42))
	require.NoError(t, err)

	assert.Len(t, test, 200)
	assert.Len(t, train, 800)

	p := prevalence(labels)
	assert.InDelta(t, p, prevalence(pick(labels, test)), 0.01)
	assert.InDelta(t, p, prevalence(pick(labels, train)), 0.01)

	all := slices.Concat(train, test)
	slices.Sort(all)
	assert.Equal(t, identity(1000), all, "every row lands in exactly one side")
}

func TestStratifiedSplit_Reproducible(t *testing.T) {
	labels := imbalancedLabels(300, 3)
	trainA, testA, err := StratifiedSplit(labels, 0.2, NewRand(7))
	require.NoError(t, err)
	trainB, testB, err := StratifiedSplit(labels, 0.2, NewRand(7))
	require.NoError(t, err)

	assert.Equal(t, trainA, trainB)
	assert.Equal(t, testA, testB)
}

func TestStratifiedSplit_SmallMinorityKeepsTestRow(t *testing.T) {
	labels := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1}
	_, test, err := StratifiedSplit(labels, 0.2, NewRand(1))
	require.NoError(t, err)
	assert.Contains(t, pick(labels, test), 1)
}

func TestStratifiedSplit_InvalidInput(t *testing.T) {
	_, _, err := StratifiedSplit([]int{0, 1}, 1.5, NewRand(1))
	require.Error(t, err)
	_, _, err = StratifiedSplit([]int{1}, 0.2, NewRand(1))
	require.Error(t, err)
}

func TestSample(t *testing.T) {
	idx := Sample(1000, 0.1, NewRand(42))
	assert.Len(t, idx, 100)
	assert.True(t, slices.IsSorted(idx))
	assert.Equal(t, idx, Sample(1000, 0.1, NewRand(42)))

	assert.Len(t, Sample(10, 0, NewRand(1)), 10)
	assert.Len(t, Sample(10, 1, NewRand(1)), 10)
	assert.Len(t, Sample(10, math.NaN(), NewRand(1)), 10)
	assert.Len(t, Sample(7, 0.5, NewRand(1)), int(math.Round(3.5)))
}

func pick(labels, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = labels[j]
	}
	return out
}

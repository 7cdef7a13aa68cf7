package matcher

import "errors"

// ErrInvalidPartitionInput is returned by FindUniqueAddends for n <= 0.
var ErrInvalidPartitionInput = errors.New("partition input must be a positive integer")

type partitionState struct {
	remaining int
	minAddend int
	path      []int
}

// FindUniqueAddends enumerates every unordered partition of n into positive
// integers ("compositions" in the flexible matcher's vocabulary). Each
// returned sequence sums to n and is non-decreasing. The order is
// deterministic: an explicit LIFO work stack is seeded with candidate next
// addends pushed from the current minimum upward through the remaining
// amount, so popping yields the largest next addend first. That biases the
// result toward fewer, larger parts appearing earlier, e.g.
// FindUniqueAddends(5) == [[5],[2,3],[1,4],[1,2,2],[1,1,3],[1,1,1,2],[1,1,1,1,1]].
func FindUniqueAddends(n int) ([][]int, error) {
	if n <= 0 {
		return nil, ErrInvalidPartitionInput
	}

	var stack []partitionState
	pushChildren := func(s partitionState) {
		for i := s.minAddend; i <= s.remaining; i++ {
			path := make([]int, len(s.path)+1)
			copy(path, s.path)
			path[len(s.path)] = i
			stack = append(stack, partitionState{
				remaining: s.remaining - i,
				minAddend: i,
				path:      path,
			})
		}
	}

	var results [][]int
	pushChildren(partitionState{remaining: n, minAddend: 1, path: nil})

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.remaining == 0 {
			results = append(results, top.path)
			continue
		}
		pushChildren(top)
	}

	return results, nil
}

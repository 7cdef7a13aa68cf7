package matcher

import (
	"fmt"
	"reflect"
	"testing"
)

func TestFindUniqueAddendsBoundaries(t *testing.T) {
	for _, n := range []int{0, -1, -5} {
		if _, err := FindUniqueAddends(n); err != ErrInvalidPartitionInput {
			t.Fatalf("FindUniqueAddends(%d) error = %v, want ErrInvalidPartitionInput", n, err)
		}
	}
}

func TestFindUniqueAddendsFive(t *testing.T) {
	want := [][]int{
		{5},
		{2, 3},
		{1, 4},
		{1, 2, 2},
		{1, 1, 3},
		{1, 1, 1, 2},
		{1, 1, 1, 1, 1},
	}

	got, err := FindUniqueAddends(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindUniqueAddends(5) = %v, want %v", got, want)
	}
}

func TestFindUniqueAddendsProperties(t *testing.T) {
	for n := 1; n <= 8; n++ {
		got, err := FindUniqueAddends(n)
		if err != nil {
			t.Fatalf("FindUniqueAddends(%d): %v", n, err)
		}

		seen := map[string]bool{}
		for _, p := range got {
			sum := 0
			for i, v := range p {
				if v <= 0 {
					t.Fatalf("partition %v has non-positive addend", p)
				}
				if i > 0 && p[i-1] > v {
					t.Fatalf("partition %v is not non-decreasing", p)
				}
				sum += v
			}
			if sum != n {
				t.Fatalf("partition %v sums to %d, want %d", p, sum, n)
			}
			key := fmt.Sprint(p)
			if seen[key] {
				t.Fatalf("duplicate partition %v for n=%d", p, n)
			}
			seen[key] = true
		}
	}
}

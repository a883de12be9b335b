package review

import (
	"reflect"
	"testing"
)

func TestSamplerChoose(t *testing.T) {
	var s Sampler
	cases := []struct {
		n    int
		want []int
	}{
		{0, nil},
		{1, []int{0}},
		{2, []int{0, 1}},
		{3, []int{0, 2}},
		{4, []int{0, 2, 3}},
		{5, []int{0, 2, 4}},
		{8, []int{0, 2, 4, 6, 7}},
	}
	for _, c := range cases {
		got := s.Choose(c.n)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Choose(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestSamplerChooseProperties(t *testing.T) {
	var s Sampler
	for n := 1; n <= 400; n++ {
		idx := s.Choose(n)
		if len(idx) == 0 {
			t.Fatalf("Choose(%d) returned no indices", n)
		}
		seen := make(map[int]bool)
		prev := -1
		for _, i := range idx {
			if i < 0 || i >= n {
				t.Fatalf("Choose(%d) produced out-of-range index %d", n, i)
			}
			if seen[i] {
				t.Fatalf("Choose(%d) produced duplicate index %d", n, i)
			}
			if i < prev {
				t.Fatalf("Choose(%d) indices not ascending: %v", n, idx)
			}
			seen[i] = true
			prev = i
		}
		if idx[len(idx)-1] != n-1 {
			t.Fatalf("Choose(%d) must include the final index, got %v", n, idx)
		}
		if n > 4 && len(idx) > n/2+1 {
			t.Fatalf("Choose(%d) selected %d indices, more than half the game", n, len(idx))
		}
	}
}

func TestSamplerBatchSize(t *testing.T) {
	var s Sampler
	cases := []struct {
		sampled int
		want    int
	}{
		{0, 2},
		{5, 2},
		{19, 2},
		{30, 3},
		{60, 6},
		{80, 8},
		{500, 8},
	}
	for _, c := range cases {
		if got := s.BatchSize(c.sampled); got != c.want {
			t.Errorf("BatchSize(%d) = %d, want %d", c.sampled, got, c.want)
		}
	}
}

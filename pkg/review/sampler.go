package review

// Sampler decides which plies of a game get engine time. Analyzing
// every position roughly doubles the engine bill for little extra
// signal, so the sampler keeps every other ply plus the final one.
type Sampler struct{}

// Choose returns the indices to evaluate out of n positions, in
// ascending order without duplicates: the even indices plus the last
// index. For n <= 2 every index is returned.
func (Sampler) Choose(n int) []int {
	if n <= 0 {
		return nil
	}
	idx := make([]int, 0, n/2+2)
	for i := 0; i < n-1; i += 2 {
		idx = append(idx, i)
	}
	return append(idx, n-1)
}

// BatchSize sizes the dispatch waves for a run of sampled positions:
// one tenth of the sampled count, clamped to [2, 8].
func (Sampler) BatchSize(sampled int) int {
	bs := sampled / 10
	if bs < 2 {
		bs = 2
	}
	if bs > 8 {
		bs = 8
	}
	return bs
}

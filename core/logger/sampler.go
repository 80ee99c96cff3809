package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets num out of every den calls through. den == 0 disables sampling.
type sampler struct {
	ratio atomic.Uint64 // num<<32 | den
	calls atomic.Uint64
}

func newSampler(num, den int) *sampler {
	s := &sampler{}
	s.Set(num, den)
	return s
}

func (s *sampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		s.ratio.Store(0)
		return
	}
	if num > den {
		num = den
	}
	s.ratio.Store(uint64(num)<<32 | uint64(den))
	s.calls.Store(0)
}

func (s *sampler) Allow() bool {
	r := s.ratio.Load()
	den := r & 0xffffffff
	if den == 0 {
		return true
	}
	n := s.calls.Add(1) - 1
	return n%den < r>>32
}

// parseRatio accepts "n/d" or a bare "d" meaning 1/d. Anything else
// returns (0, 0).
func parseRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	numStr, denStr, found := strings.Cut(spec, "/")
	if !found {
		numStr, denStr = "1", spec
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0, 0
	}
	den, err := strconv.Atoi(strings.TrimSpace(denStr))
	if err != nil || den <= 0 {
		return 0, 0
	}
	return num, den
}

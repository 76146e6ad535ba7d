package preview

import "fmt"

// ComputeStep returns how many decoded frames separate two previews:
// ceil(frame rate) * cadence.
func ComputeStep(rate Rational, cadenceSeconds int) (int, error) {
	if cadenceSeconds < 1 {
		return 0, fmt.Errorf("invalid cadence %ds", cadenceSeconds)
	}
	if rate.Den <= 0 || rate.Num <= 0 {
		return 0, fmt.Errorf("invalid frame rate %s", rate)
	}
	fps := (rate.Num + rate.Den - 1) / rate.Den
	return int(fps) * cadenceSeconds, nil
}

// Sampler keeps every step-th decoded frame, counted on the global decode
// position with offset step-1: positions step-1, 2*step-1, ... are kept.
// A sequence of n frames therefore yields exactly n/step previews.
type Sampler struct {
	step int
}

func NewSampler(step int) (Sampler, error) {
	if step < 1 {
		return Sampler{}, fmt.Errorf("invalid step %d", step)
	}
	return Sampler{step: step}, nil
}

func (s Sampler) Step() int {
	return s.step
}

func (s Sampler) Keep(position int) bool {
	return position >= 0 && position%s.step == s.step-1
}

// Retained is the number of frames kept out of n decoded frames.
func (s Sampler) Retained(n int) int {
	if n <= 0 {
		return 0
	}
	return n / s.step
}

// Select applies the stride to an already materialised sequence.
func Select[T any](items []T, s Sampler) []T {
	out := make([]T, 0, s.Retained(len(items)))
	for i := s.step - 1; i < len(items); i += s.step {
		out = append(out, items[i])
	}
	return out
}

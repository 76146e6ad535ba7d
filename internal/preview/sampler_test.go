package preview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStep(t *testing.T) {
	cases := []struct {
		rate Rational
		want int
	}{
		{Rational{30, 1}, 150},
		{Rational{30000, 1001}, 150},
		{Rational{25, 1}, 125},
		{Rational{24000, 1001}, 120},
		{Rational{60, 1}, 300},
		{Rational{1, 2}, 5},
	}
	for _, tc := range cases {
		step, err := ComputeStep(tc.rate, 5)
		require.NoError(t, err, tc.rate)
		assert.Equal(t, tc.want, step, tc.rate)
	}
}

func TestComputeStepNeverZero(t *testing.T) {
	for num := int64(1); num <= 240; num++ {
		for _, den := range []int64{1, 2, 1001} {
			rate := Rational{num, den}
			step, err := ComputeStep(rate, 5)
			require.NoError(t, err)
			assert.Positive(t, step)
			assert.Equal(t, int(math.Ceil(rate.Float()))*5, step, rate)
		}
	}
}

func TestComputeStepRejectsUndefinedRate(t *testing.T) {
	for _, rate := range []Rational{{0, 0}, {30, 0}, {0, 1}, {-30, 1}} {
		_, err := ComputeStep(rate, 5)
		assert.Error(t, err, rate)
	}
	_, err := ComputeStep(Rational{30, 1}, 0)
	assert.Error(t, err)
}

func TestSamplerRetainsFloorOfLengthOverStep(t *testing.T) {
	for _, step := range []int{1, 2, 7, 150} {
		s, err := NewSampler(step)
		require.NoError(t, err)
		for n := 0; n <= 1000; n += 13 {
			kept := 0
			last := -1
			for pos := 0; pos < n; pos++ {
				if s.Keep(pos) {
					assert.Greater(t, pos, last)
					last = pos
					kept++
				}
			}
			assert.Equal(t, n/step, kept, "n=%d step=%d", n, step)
			assert.Equal(t, kept, s.Retained(n))
		}
	}
}

func TestSamplerOffset(t *testing.T) {
	s, err := NewSampler(3)
	require.NoError(t, err)
	assert.False(t, s.Keep(0))
	assert.False(t, s.Keep(1))
	assert.True(t, s.Keep(2))
	assert.True(t, s.Keep(5))
	assert.False(t, s.Keep(-1))
}

func TestSelect(t *testing.T) {
	s, err := NewSampler(3)
	require.NoError(t, err)
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, []int{2, 5}, Select(items, s))
	assert.Empty(t, Select([]int{0, 1}, s))
}

func TestNewSamplerRejectsZeroStep(t *testing.T) {
	_, err := NewSampler(0)
	assert.Error(t, err)
}

func TestParseRational(t *testing.T) {
	r, err := ParseRational("30000/1001")
	require.NoError(t, err)
	assert.Equal(t, Rational{30000, 1001}, r)

	r, err = ParseRational("25")
	require.NoError(t, err)
	assert.Equal(t, Rational{25, 1}, r)

	r, err = ParseRational("0/0")
	require.NoError(t, err)
	assert.False(t, r.Defined())
	assert.True(t, math.IsNaN(r.Float()))

	_, err = ParseRational("abc")
	assert.Error(t, err)
}

func TestVideoSourceDuration(t *testing.T) {
	src := VideoSource{DurationTicks: 460800, TimeBase: Rational{1, 15360}}
	assert.InDelta(t, 30.0, src.Duration(), 1e-9)

	src = VideoSource{TimeBase: Rational{0, 0}, ContainerDuration: 12.5}
	assert.Equal(t, 12.5, src.Duration())

	src = VideoSource{DurationTicks: 100, TimeBase: Rational{1, 0}}
	assert.Equal(t, 0.0, src.Duration())
}

package preview

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rational is a fraction as reported by the container, e.g. 30000/1001.
type Rational struct {
	Num int64
	Den int64
}

// ParseRational parses "num/den" or a plain integer.
func ParseRational(s string) (Rational, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
	}
	if !found {
		return Rational{Num: n, Den: 1}, nil
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
	}
	return Rational{Num: n, Den: d}, nil
}

func (r Rational) Defined() bool {
	return r.Den != 0
}

func (r Rational) Float() float64 {
	if r.Den == 0 {
		return math.NaN()
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// VideoSource describes the selected video stream of an opened container.
type VideoSource struct {
	StreamIndex   int
	PixelFormat   PixelFormat
	Width         int
	Height        int
	FrameRate     Rational
	DurationTicks int64
	TimeBase      Rational
	// ContainerDuration is the format-level duration in seconds, 0 when unknown.
	ContainerDuration float64
}

// Duration is the stream duration in seconds. Falls back to the container
// duration and then to 0 when the metadata is missing or unusable.
func (s VideoSource) Duration() float64 {
	if s.DurationTicks > 0 && s.TimeBase.Defined() && s.TimeBase.Num > 0 {
		return float64(s.DurationTicks) * s.TimeBase.Float()
	}
	if s.ContainerDuration > 0 && !math.IsInf(s.ContainerDuration, 0) {
		return s.ContainerDuration
	}
	return 0
}

// Packet is a chunk of the selected stream. Boundaries carry no meaning to
// the sampler; only decode positions do.
type Packet struct {
	StreamIndex int
	Data        []byte
}

// Picture is one decoded frame in its native pixel format.
type Picture struct {
	Position int
	Format   PixelFormat
	Width    int
	Height   int
	Data     []byte
}

type Decoder interface {
	Decode(pkt Packet) ([]Picture, error)
	// Flush returns pictures still buffered at end of stream.
	Flush() ([]Picture, error)
}

// Container is an opened video file. ReadPacket returns io.EOF once the
// selected stream is exhausted.
type Container interface {
	Stream() VideoSource
	ReadPacket() (Packet, error)
	NewDecoder() (Decoder, error)
	Close() error
}

type Demuxer interface {
	Open(ctx context.Context, path string) (Container, error)
}

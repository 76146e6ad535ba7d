package preview

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fiapx/frameflow/internal/domain/entity"
)

// Extractor runs demux, decode, sampling, raster conversion and encoding
// for one video file.
type Extractor struct {
	demuxer Demuxer
	encoder *Encoder
	logger  *zap.Logger
}

func NewExtractor(demuxer Demuxer, encoder *Encoder, logger *zap.Logger) *Extractor {
	return &Extractor{demuxer: demuxer, encoder: encoder, logger: logger}
}

func (e *Extractor) GeneratePreviews(ctx context.Context, path string, cadenceSeconds int) (*entity.PreviewBatch, error) {
	container, err := e.demuxer.Open(ctx, path)
	if err != nil {
		return nil, asError(KindOpen, err)
	}
	defer container.Close()

	src := container.Stream()

	scaler, err := NewScaler(src.PixelFormat, src.Width, src.Height)
	if err != nil {
		return nil, err
	}
	decoder, err := container.NewDecoder()
	if err != nil {
		return nil, asError(KindDecode, err)
	}

	step, err := ComputeStep(src.FrameRate, cadenceSeconds)
	if err != nil {
		return nil, newError(KindOpen, err)
	}
	sampler, _ := NewSampler(step)

	batch := &entity.PreviewBatch{
		CadenceSeconds:  cadenceSeconds,
		DurationSeconds: src.Duration(),
		Step:            step,
		FrameRate:       src.FrameRate.Float(),
	}

	retain := func(pics []Picture) error {
		for _, p := range pics {
			batch.DecodedFrames++
			if !sampler.Keep(p.Position) {
				continue
			}
			raster, err := scaler.Scale(p)
			if err != nil {
				return err
			}
			encoded, err := e.encoder.Encode(raster)
			if err != nil {
				return err
			}
			batch.Previews = append(batch.Previews, encoded)
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pkt, err := container.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, asError(KindDecode, err)
		}
		pics, err := decoder.Decode(pkt)
		if err != nil {
			return nil, asError(KindDecode, fmt.Errorf("decode packet: %w", err))
		}
		if err := retain(pics); err != nil {
			return nil, err
		}
	}

	pics, err := decoder.Flush()
	if err != nil {
		return nil, asError(KindDecode, fmt.Errorf("flush decoder: %w", err))
	}
	if err := retain(pics); err != nil {
		return nil, err
	}

	e.logger.Debug("previews extracted",
		zap.String("path", path),
		zap.Int("decoded_frames", batch.DecodedFrames),
		zap.Int("step", step),
		zap.Int("previews", len(batch.Previews)),
		zap.Float64("duration_secs", batch.DurationSeconds),
	)

	return batch, nil
}

// asError tags err with kind unless it already carries a stage.
func asError(kind Kind, err error) error {
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	return newError(kind, err)
}

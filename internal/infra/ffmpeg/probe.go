package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fiapx/frameflow/internal/preview"
)

var ErrNoVideoStream = errors.New("no decodable video stream")

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	ColorRange   string `json:"color_range"`
	AvgFrameRate string `json:"avg_frame_rate"`
	TimeBase     string `json:"time_base"`
	DurationTS   int64  `json:"duration_ts"`
	Disposition  struct {
		Default     int `json:"default"`
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

// probedStream is the selected stream plus the pix_fmt name ffmpeg must be
// asked to emit.
type probedStream struct {
	source       preview.VideoSource
	nativePixFmt string
}

func probe(ctx context.Context, ffprobe, path string) (probedStream, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return probedStream{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return probedStream{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return selectVideoStream(out)
}

// selectVideoStream picks the default video stream, else the first one.
// Cover art is never selected.
func selectVideoStream(out probeOutput) (probedStream, error) {
	var best *probeStream
	for i := range out.Streams {
		s := &out.Streams[i]
		if s.CodecType != "video" || s.Disposition.AttachedPic == 1 || s.Width <= 0 || s.Height <= 0 {
			continue
		}
		if best == nil || (s.Disposition.Default == 1 && best.Disposition.Default != 1) {
			best = s
		}
	}
	if best == nil {
		return probedStream{}, ErrNoVideoStream
	}

	src := preview.VideoSource{
		StreamIndex:   best.Index,
		PixelFormat:   pixelFormat(best.PixFmt, best.ColorRange),
		Width:         best.Width,
		Height:        best.Height,
		DurationTicks: best.DurationTS,
	}
	// unparsable rates stay zero and are rejected when the step is computed
	src.FrameRate, _ = preview.ParseRational(best.AvgFrameRate)
	src.TimeBase, _ = preview.ParseRational(best.TimeBase)
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		src.ContainerDuration = d
	}
	return probedStream{source: src, nativePixFmt: best.PixFmt}, nil
}

// pixelFormat folds a "pc" colour range into the yuvj family so the scaler
// skips the limited range expansion.
func pixelFormat(pixFmt, colorRange string) preview.PixelFormat {
	f := preview.PixelFormat(pixFmt)
	if colorRange != "pc" || !strings.HasPrefix(pixFmt, "yuv") || strings.HasPrefix(pixFmt, "yuvj") {
		return f
	}
	if full := preview.PixelFormat("yuvj" + strings.TrimPrefix(pixFmt, "yuv")); full.Supported() {
		return full
	}
	return f
}

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fiapx/frameflow/internal/preview"
)

const defaultPacketSize = 64 << 10

// Demuxer opens videos with ffprobe and streams the selected video stream
// out of an ffmpeg process as rawvideo in its native pixel format.
type Demuxer struct {
	packetSize int
	logger     *zap.Logger
}

func NewDemuxer(logger *zap.Logger) *Demuxer {
	return &Demuxer{packetSize: defaultPacketSize, logger: logger}
}

func (d *Demuxer) Open(ctx context.Context, path string) (preview.Container, error) {
	tk, err := current()
	if err != nil {
		return nil, err
	}

	probed, err := probe(ctx, tk.FFprobe, path)
	if err != nil {
		return nil, err
	}
	src := probed.source

	cmd := exec.CommandContext(ctx, tk.FFmpeg,
		"-nostdin",
		"-v", "error",
		"-i", path,
		"-map", "0:"+strconv.Itoa(src.StreamIndex),
		"-an", "-sn", "-dn",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", probed.nativePixFmt,
		"pipe:1",
	)
	c := &container{src: src, packetSize: d.packetSize, cmd: cmd, stderr: newTailBuffer(stderrLimit)}
	cmd.Stderr = c.stderr

	c.stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	d.logger.Debug("video opened",
		zap.String("path", path),
		zap.Int("stream", src.StreamIndex),
		zap.String("pix_fmt", string(src.PixelFormat)),
		zap.Int("width", src.Width),
		zap.Int("height", src.Height),
		zap.String("frame_rate", src.FrameRate.String()),
	)
	return c, nil
}

type container struct {
	src        preview.VideoSource
	packetSize int
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderr     *tailBuffer
	exited     bool
}

func (c *container) Stream() preview.VideoSource {
	return c.src
}

func (c *container) NewDecoder() (preview.Decoder, error) {
	return preview.NewRawDecoder(c.src)
}

func (c *container) ReadPacket() (preview.Packet, error) {
	if c.exited {
		return preview.Packet{}, io.EOF
	}

	buf := make([]byte, c.packetSize)
	n, err := c.stdout.Read(buf)
	if n > 0 {
		return preview.Packet{StreamIndex: c.src.StreamIndex, Data: buf[:n]}, nil
	}
	if err == nil {
		return preview.Packet{StreamIndex: c.src.StreamIndex}, nil
	}
	if !errors.Is(err, io.EOF) {
		return preview.Packet{}, fmt.Errorf("read ffmpeg output: %w", err)
	}

	c.exited = true
	if err := c.cmd.Wait(); err != nil {
		return preview.Packet{}, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(c.stderr.String()))
	}
	return preview.Packet{}, io.EOF
}

// Close stops ffmpeg if the stream was not read to the end.
func (c *container) Close() error {
	if c.exited {
		return nil
	}
	c.exited = true
	_ = c.cmd.Process.Kill()
	_ = c.cmd.Wait()
	return nil
}

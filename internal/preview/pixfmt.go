package preview

import (
	"fmt"
	"image"
)

// PixelFormat uses ffmpeg pix_fmt names.
type PixelFormat string

const (
	PixFmtYUV420P  PixelFormat = "yuv420p"
	PixFmtYUVJ420P PixelFormat = "yuvj420p"
	PixFmtYUV422P  PixelFormat = "yuv422p"
	PixFmtYUVJ422P PixelFormat = "yuvj422p"
	PixFmtYUV444P  PixelFormat = "yuv444p"
	PixFmtYUVJ444P PixelFormat = "yuvj444p"
	PixFmtYUV440P  PixelFormat = "yuv440p"
	PixFmtYUVJ440P PixelFormat = "yuvj440p"
	PixFmtGray     PixelFormat = "gray"
	PixFmtRGB24    PixelFormat = "rgb24"
	PixFmtRGBA     PixelFormat = "rgba"
	PixFmtBGRA     PixelFormat = "bgra"
)

type planarLayout struct {
	ratio     image.YCbCrSubsampleRatio
	fullRange bool
}

var planarFormats = map[PixelFormat]planarLayout{
	PixFmtYUV420P:  {image.YCbCrSubsampleRatio420, false},
	PixFmtYUVJ420P: {image.YCbCrSubsampleRatio420, true},
	PixFmtYUV422P:  {image.YCbCrSubsampleRatio422, false},
	PixFmtYUVJ422P: {image.YCbCrSubsampleRatio422, true},
	PixFmtYUV444P:  {image.YCbCrSubsampleRatio444, false},
	PixFmtYUVJ444P: {image.YCbCrSubsampleRatio444, true},
	PixFmtYUV440P:  {image.YCbCrSubsampleRatio440, false},
	PixFmtYUVJ440P: {image.YCbCrSubsampleRatio440, true},
}

var packedBytesPerPixel = map[PixelFormat]int{
	PixFmtGray:  1,
	PixFmtRGB24: 3,
	PixFmtRGBA:  4,
	PixFmtBGRA:  4,
}

func (f PixelFormat) Supported() bool {
	_, planar := planarFormats[f]
	_, packed := packedBytesPerPixel[f]
	return planar || packed
}

// FrameSize is the byte length of one tightly packed picture.
func (f PixelFormat) FrameSize(width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if layout, ok := planarFormats[f]; ok {
		cw, ch := chromaSize(layout.ratio, width, height)
		return width*height + 2*cw*ch, nil
	}
	if bpp, ok := packedBytesPerPixel[f]; ok {
		return width * height * bpp, nil
	}
	return 0, fmt.Errorf("unsupported pixel format %q", f)
}

func chromaSize(ratio image.YCbCrSubsampleRatio, w, h int) (int, int) {
	switch ratio {
	case image.YCbCrSubsampleRatio420:
		return (w + 1) / 2, (h + 1) / 2
	case image.YCbCrSubsampleRatio422:
		return (w + 1) / 2, h
	case image.YCbCrSubsampleRatio440:
		return w, (h + 1) / 2
	default:
		return w, h
	}
}

package preview

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// RasterFrame is a non-premultiplied RGBA8 buffer of Width*Height*4 bytes.
type RasterFrame struct {
	Position int
	Width    int
	Height   int
	Pix      []byte
}

// Scaler converts native pictures to RGBA at source resolution.
type Scaler struct {
	format PixelFormat
	width  int
	height int
	size   int
	filter draw.Scaler
}

func NewScaler(format PixelFormat, width, height int) (*Scaler, error) {
	if !format.Supported() {
		return nil, newError(KindScale, fmt.Errorf("unsupported pixel format %q", format))
	}
	size, err := format.FrameSize(width, height)
	if err != nil {
		return nil, newError(KindScale, err)
	}
	return &Scaler{
		format: format,
		width:  width,
		height: height,
		size:   size,
		filter: draw.BiLinear,
	}, nil
}

func (s *Scaler) Scale(p Picture) (RasterFrame, error) {
	if p.Format != s.format || p.Width != s.width || p.Height != s.height {
		return RasterFrame{}, newError(KindScale, fmt.Errorf(
			"picture %s %dx%d does not match scaler %s %dx%d",
			p.Format, p.Width, p.Height, s.format, s.width, s.height))
	}
	if len(p.Data) != s.size {
		return RasterFrame{}, newError(KindScale, fmt.Errorf("picture %d has %d bytes, want %d", p.Position, len(p.Data), s.size))
	}

	frame := RasterFrame{Position: p.Position, Width: s.width, Height: s.height}

	src := s.image(p.Data)
	if n, ok := src.(*image.NRGBA); ok {
		// packed sources already hold straight RGBA at the target size
		frame.Pix = n.Pix
		return frame, nil
	}

	// YCbCr and gray are opaque, so premultiplied and straight RGBA agree.
	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	s.filter.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	frame.Pix = dst.Pix
	return frame, nil
}

func (s *Scaler) image(data []byte) image.Image {
	w, h := s.width, s.height
	rect := image.Rect(0, 0, w, h)

	if layout, ok := planarFormats[s.format]; ok {
		cw, ch := chromaSize(layout.ratio, w, h)
		ySize, cSize := w*h, cw*ch
		img := &image.YCbCr{
			Y:              data[:ySize],
			Cb:             data[ySize : ySize+cSize],
			Cr:             data[ySize+cSize : ySize+2*cSize],
			YStride:        w,
			CStride:        cw,
			SubsampleRatio: layout.ratio,
			Rect:           rect,
		}
		if !layout.fullRange {
			return expandRange(img)
		}
		return img
	}

	switch s.format {
	case PixFmtGray:
		return &image.Gray{Pix: data, Stride: w, Rect: rect}
	case PixFmtRGBA:
		return &image.NRGBA{Pix: append([]byte(nil), data...), Stride: 4 * w, Rect: rect}
	case PixFmtBGRA:
		pix := make([]byte, len(data))
		for i := 0; i < len(data); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = data[i+2], data[i+1], data[i], data[i+3]
		}
		return &image.NRGBA{Pix: pix, Stride: 4 * w, Rect: rect}
	default: // rgb24
		pix := make([]byte, w*h*4)
		for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
			pix[j], pix[j+1], pix[j+2], pix[j+3] = data[i], data[i+1], data[i+2], 0xff
		}
		return &image.NRGBA{Pix: pix, Stride: 4 * w, Rect: rect}
	}
}

// Limited range (16-235 luma, 16-240 chroma) to the full range expected by
// image/color's JFIF conversion.
var lumaLUT, chromaLUT = rangeTables()

func rangeTables() (luma, chroma [256]byte) {
	for i := 0; i < 256; i++ {
		luma[i] = clamp8((float64(i)-16)*255/219 + 0.5)
		chroma[i] = clamp8((float64(i)-128)*255/224 + 128.5)
	}
	return luma, chroma
}

func clamp8(v float64) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}

func expandRange(img *image.YCbCr) *image.YCbCr {
	out := *img
	out.Y = remap(img.Y, &lumaLUT)
	out.Cb = remap(img.Cb, &chromaLUT)
	out.Cr = remap(img.Cr, &chromaLUT)
	return &out
}

func remap(plane []byte, lut *[256]byte) []byte {
	out := make([]byte, len(plane))
	for i, v := range plane {
		out[i] = lut[v]
	}
	return out
}

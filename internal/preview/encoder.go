package preview

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/sunshineplan/imgconv"

	"github.com/fiapx/frameflow/internal/domain/entity"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPNG, FormatWebP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported preview format %q", s)
	}
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

// Encoder serialises raster frames into a lossless image format.
type Encoder struct {
	format Format
}

func NewEncoder(format Format) (*Encoder, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &Encoder{format: format}, nil
}

func (e *Encoder) Format() Format {
	return e.format
}

func (e *Encoder) Encode(frame RasterFrame) (entity.EncodedPreview, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, newError(KindEncode, fmt.Errorf("invalid raster dimensions %dx%d", frame.Width, frame.Height))
	}
	if want := frame.Width * frame.Height * 4; len(frame.Pix) != want {
		return nil, newError(KindEncode, fmt.Errorf(
			"raster %dx%d has %d bytes, want %d", frame.Width, frame.Height, len(frame.Pix), want))
	}

	stride := 4 * frame.Width
	rect := image.Rect(0, 0, frame.Width, frame.Height)

	var buf bytes.Buffer
	var err error
	switch e.format {
	case FormatWebP:
		// libwebp reads the *image.RGBA buffer as straight alpha. Exact keeps
		// the colour of fully transparent pixels.
		img := &image.RGBA{Pix: frame.Pix, Stride: stride, Rect: rect}
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true, Exact: true})
	default:
		img := &image.NRGBA{Pix: frame.Pix, Stride: stride, Rect: rect}
		err = imgconv.Write(&buf, img, &imgconv.FormatOption{Format: imgconv.PNG})
	}
	if err != nil {
		return nil, newError(KindEncode, err)
	}
	return buf.Bytes(), nil
}

// Decode reads an encoded preview back into an image. WebP previews come
// back as *image.NRGBA, matching the straight alpha they were written with.
func Decode(format Format, data []byte) (image.Image, error) {
	if format == FormatWebP {
		m, err := webp.DecodeRGBA(data)
		if err != nil {
			return nil, err
		}
		return &image.NRGBA{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect}, nil
	}
	return imgconv.Decode(bytes.NewReader(data))
}

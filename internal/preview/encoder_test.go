package preview

import (
	"image"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientFrame(w, h int) RasterFrame {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			pix[i] = byte(x * 17)
			pix[i+1] = byte(y * 29)
			pix[i+2] = byte(x*y + 3)
			pix[i+3] = 0xff
		}
	}
	return RasterFrame{Width: w, Height: h, Pix: pix}
}

func translucentFrame(w, h int) RasterFrame {
	frame := gradientFrame(w, h)
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = byte(i * 7)
	}
	return frame
}

// rasterPix returns decoded pixels as straight RGBA bytes.
func rasterPix(img image.Image) []byte {
	switch m := img.(type) {
	case *image.NRGBA:
		return m.Pix
	case *image.RGBA:
		if m.Opaque() {
			return m.Pix
		}
	}
	out := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out.Pix
}

func TestEncoderRoundTripIsLossless(t *testing.T) {
	for _, format := range []Format{FormatPNG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			enc, err := NewEncoder(format)
			require.NoError(t, err)

			frame := gradientFrame(13, 7)
			data, err := enc.Encode(frame)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			img, err := Decode(format, data)
			require.NoError(t, err)
			assert.Equal(t, frame.Pix, rasterPix(img))
		})
	}
}

func TestEncoderRoundTripKeepsTranslucentPixels(t *testing.T) {
	for _, format := range []Format{FormatPNG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			enc, err := NewEncoder(format)
			require.NoError(t, err)

			frame := translucentFrame(9, 5)
			frame.Pix[0], frame.Pix[1], frame.Pix[2], frame.Pix[3] = 10, 20, 30, 100

			data, err := enc.Encode(frame)
			require.NoError(t, err)

			img, err := Decode(format, data)
			require.NoError(t, err)
			assert.Equal(t, frame.Pix, rasterPix(img))
		})
	}
}

func TestTranslucentSourceSurvivesScaleAndEncode(t *testing.T) {
	scaler, err := NewScaler(PixFmtRGBA, 1, 1)
	require.NoError(t, err)

	frame, err := scaler.Scale(Picture{Format: PixFmtRGBA, Width: 1, Height: 1, Data: []byte{200, 100, 50, 128}})
	require.NoError(t, err)
	assert.Equal(t, []byte{200, 100, 50, 128}, frame.Pix)

	enc, err := NewEncoder(FormatPNG)
	require.NoError(t, err)
	data, err := enc.Encode(frame)
	require.NoError(t, err)
	img, err := Decode(FormatPNG, data)
	require.NoError(t, err)
	assert.Equal(t, []byte{200, 100, 50, 128}, rasterPix(img))
}

func TestEncoderRejectsShapeMismatch(t *testing.T) {
	enc, err := NewEncoder(FormatPNG)
	require.NoError(t, err)

	frame := gradientFrame(4, 4)
	frame.Pix = frame.Pix[:len(frame.Pix)-4]

	data, err := enc.Encode(frame)
	assert.ErrorIs(t, err, ErrEncode)
	assert.Nil(t, data)

	_, err = enc.Encode(RasterFrame{Width: 0, Height: 4})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestEncoderIsDeterministic(t *testing.T) {
	enc, err := NewEncoder(FormatPNG)
	require.NoError(t, err)

	a, err := enc.Encode(gradientFrame(8, 8))
	require.NoError(t, err)
	b, err := enc.Encode(gradientFrame(8, 8))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("webp")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)

	_, err = NewEncoder("jpeg")
	assert.Error(t, err)
}

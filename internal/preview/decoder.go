package preview

import "fmt"

// rawDecoder reassembles tightly packed rawvideo pictures from arbitrarily
// sized packets.
type rawDecoder struct {
	stream int
	format PixelFormat
	width  int
	height int
	size   int
	buf    []byte
	next   int
}

func NewRawDecoder(src VideoSource) (Decoder, error) {
	size, err := src.PixelFormat.FrameSize(src.Width, src.Height)
	if err != nil {
		return nil, err
	}
	return &rawDecoder{
		stream: src.StreamIndex,
		format: src.PixelFormat,
		width:  src.Width,
		height: src.Height,
		size:   size,
	}, nil
}

func (d *rawDecoder) Decode(pkt Packet) ([]Picture, error) {
	if pkt.StreamIndex != d.stream {
		return nil, fmt.Errorf("packet for stream %d sent to decoder of stream %d", pkt.StreamIndex, d.stream)
	}

	data := pkt.Data
	var pics []Picture

	// complete a picture started by an earlier packet
	if len(d.buf) > 0 {
		need := d.size - len(d.buf)
		if len(data) < need {
			d.buf = append(d.buf, data...)
			return nil, nil
		}
		d.buf = append(d.buf, data[:need]...)
		pics = append(pics, d.picture(d.buf))
		d.buf = nil
		data = data[need:]
	}

	for len(data) >= d.size {
		frame := make([]byte, d.size)
		copy(frame, data[:d.size])
		pics = append(pics, d.picture(frame))
		data = data[d.size:]
	}

	if len(data) > 0 {
		d.buf = make([]byte, len(data), d.size)
		copy(d.buf, data)
	}
	return pics, nil
}

func (d *rawDecoder) Flush() ([]Picture, error) {
	if len(d.buf) > 0 {
		n := len(d.buf)
		d.buf = nil
		return nil, fmt.Errorf("truncated picture at position %d: %d of %d bytes", d.next, n, d.size)
	}
	return nil, nil
}

func (d *rawDecoder) picture(data []byte) Picture {
	p := Picture{
		Position: d.next,
		Format:   d.format,
		Width:    d.width,
		Height:   d.height,
		Data:     data,
	}
	d.next++
	return p
}

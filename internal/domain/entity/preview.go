package entity

// EncodedPreview is one compressed preview image.
type EncodedPreview []byte

// PreviewBatch is the output of one extraction. Previews are ordered by
// ascending decode position.
type PreviewBatch struct {
	CadenceSeconds  int
	DurationSeconds float64
	Step            int
	FrameRate       float64
	DecodedFrames   int
	Previews        []EncodedPreview
}

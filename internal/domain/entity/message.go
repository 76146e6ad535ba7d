package entity

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var mimetypePattern = regexp.MustCompile(`^[\w.+-]+/[\w.+-]+`)

// ProcessEvent is the inbound message from the video-process queue.
type ProcessEvent struct {
	Reference string `json:"reference"`
	Mimetype  string `json:"mimetype"`
}

func (e ProcessEvent) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Reference, validation.Required, validation.Length(1, 512)),
		validation.Field(&e.Mimetype, validation.Required, validation.Match(mimetypePattern)),
	)
}

// Extension is the mimetype subtype, used as the scratch file extension.
func (e ProcessEvent) Extension() string {
	ext := e.Mimetype
	if i := strings.LastIndex(ext, "/"); i >= 0 {
		ext = ext[i+1:]
	}
	if i := strings.Index(ext, ";"); i >= 0 {
		ext = ext[:i]
	}
	return strings.TrimSpace(ext)
}

// PreviewMetadata is the outbound message published to the video-metadata queue.
type PreviewMetadata struct {
	Reference string   `json:"reference"`
	Duration  float64  `json:"duration"`
	Step      int      `json:"step"`
	Previews  []string `json:"previews"`
}

package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// Toolkit holds the resolved ffmpeg and ffprobe binaries.
type Toolkit struct {
	FFmpeg  string
	FFprobe string
}

var (
	initOnce sync.Once
	toolkit  *Toolkit
	initErr  error
)

var errNotInitialised = errors.New("ffmpeg toolkit not initialised")

// Init resolves the binaries once per process. Later calls return the
// outcome of the first one.
func Init(ffmpegPath, ffprobePath string) (*Toolkit, error) {
	initOnce.Do(func() {
		tk := &Toolkit{}
		if tk.FFmpeg, initErr = exec.LookPath(ffmpegPath); initErr != nil {
			initErr = fmt.Errorf("locate ffmpeg: %w", initErr)
			return
		}
		if tk.FFprobe, initErr = exec.LookPath(ffprobePath); initErr != nil {
			initErr = fmt.Errorf("locate ffprobe: %w", initErr)
			return
		}
		toolkit = tk
	})
	return toolkit, initErr
}

func current() (*Toolkit, error) {
	if toolkit == nil {
		return nil, errNotInitialised
	}
	return toolkit, nil
}

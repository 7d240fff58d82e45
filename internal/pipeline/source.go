package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Source yields raw frames. *gocv.VideoCapture satisfies it.
type Source interface {
	// Read fills m with the next frame, returning false when the source
	// failed or ended.
	Read(m *gocv.Mat) bool
	Close() error
}

// OpenSource opens device as a video file or stream URL when it names one,
// otherwise as a camera index.
func OpenSource(device string) (Source, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil, fmt.Errorf("no capture device configured")
	}

	if _, err := os.Stat(device); err == nil || strings.Contains(device, "://") {
		capture, err := gocv.VideoCaptureFile(device)
		if err != nil {
			return nil, fmt.Errorf("failed to open video %s: %w", device, err)
		}
		return capture, nil
	}

	id, err := strconv.Atoi(device)
	if err != nil {
		return nil, fmt.Errorf("capture device %q is neither a file nor a camera index", device)
	}
	capture, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", id, err)
	}
	return capture, nil
}

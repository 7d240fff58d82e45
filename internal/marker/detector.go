package marker

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ArucoDetector runs one OpenCV ArUco detector per configured dictionary and
// concatenates what they find. Results are not merged across dictionaries:
// two dictionaries may report the same integer for different patterns.
type ArucoDetector struct {
	mu        sync.Mutex
	dicts     []Dictionary
	detectors []gocv.ArucoDetector
	closed    bool
}

var _ Detector = (*ArucoDetector)(nil)

// NewArucoDetector creates a detector for the named dictionaries.
// An empty list selects DefaultDictionaries.
func NewArucoDetector(names []string) (*ArucoDetector, error) {
	if len(names) == 0 {
		names = DefaultDictionaries
	}
	dicts, err := LookupDictionaries(names)
	if err != nil {
		return nil, err
	}

	a := &ArucoDetector{dicts: dicts}
	for _, d := range dicts {
		params := gocv.NewArucoDetectorParameters()
		dict := gocv.GetPredefinedDictionary(d.Code)
		a.detectors = append(a.detectors, gocv.NewArucoDetectorWithParams(dict, params))
	}
	return a, nil
}

// Dictionaries returns the dictionaries scanned, in scan order.
func (a *ArucoDetector) Dictionaries() []Dictionary {
	out := make([]Dictionary, len(a.dicts))
	copy(out, a.dicts)
	return out
}

// Detect scans frame with every dictionary in configuration order.
func (a *ArucoDetector) Detect(frame gocv.Mat) ([]Detection, error) {
	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errors.New("detector closed")
	}

	var out []Detection
	for i := range a.detectors {
		corners, ids, _ := a.detectors[i].DetectMarkers(frame)
		if len(corners) != len(ids) {
			return nil, fmt.Errorf("%s: %d corner sets for %d ids", a.dicts[i].Name, len(corners), len(ids))
		}
		for j, id := range ids {
			out = append(out, Detection{
				ID:         id,
				Dictionary: a.dicts[i].Name,
				Corners:    quadFromPoints(corners[j]),
			})
		}
	}
	return out, nil
}

// Close releases the OpenCV detectors.
func (a *ArucoDetector) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	for i := range a.detectors {
		a.detectors[i].Close()
	}
	return nil
}

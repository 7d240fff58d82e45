package app

import "fmt"

// Mode is the operating phase of the tracker.
type Mode int

const (
	// ModeMemorize collects the markers in view as target candidates.
	ModeMemorize Mode = iota
	// ModeDetect records first sightings into the ledger.
	ModeDetect
)

func (m Mode) String() string {
	switch m {
	case ModeMemorize:
		return "memorize"
	case ModeDetect:
		return "detect"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode as its name so JSON views stay readable.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModeMemorize, ModeDetect:
		return []byte(m.String()), nil
	}
	return nil, fmt.Errorf("invalid mode %d", int(m))
}

// UnmarshalText parses a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "memorize":
		*m = ModeMemorize
	case "detect":
		*m = ModeDetect
	default:
		return fmt.Errorf("unknown mode %q", string(text))
	}
	return nil
}

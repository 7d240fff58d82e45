package marker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Predefined ArUco dictionaries by their OpenCV names.
var dictionaries = map[string]gocv.ArucoDictionaryCode{
	"DICT_4X4_50":   gocv.ArucoDict4x4_50,
	"DICT_4X4_100":  gocv.ArucoDict4x4_100,
	"DICT_4X4_250":  gocv.ArucoDict4x4_250,
	"DICT_4X4_1000": gocv.ArucoDict4x4_1000,
	"DICT_5X5_50":   gocv.ArucoDict5x5_50,
	"DICT_5X5_100":  gocv.ArucoDict5x5_100,
	"DICT_5X5_250":  gocv.ArucoDict5x5_250,
	"DICT_5X5_1000": gocv.ArucoDict5x5_1000,
	"DICT_6X6_50":   gocv.ArucoDict6x6_50,
	"DICT_6X6_100":  gocv.ArucoDict6x6_100,
	"DICT_6X6_250":  gocv.ArucoDict6x6_250,
	"DICT_6X6_1000": gocv.ArucoDict6x6_1000,
	"DICT_7X7_50":   gocv.ArucoDict7x7_50,
	"DICT_7X7_100":  gocv.ArucoDict7x7_100,
	"DICT_7X7_250":  gocv.ArucoDict7x7_250,
	"DICT_7X7_1000": gocv.ArucoDict7x7_1000,
}

// DefaultDictionaries are scanned when no dictionaries are configured.
var DefaultDictionaries = []string{"DICT_4X4_50", "DICT_5X5_100", "DICT_6X6_250", "DICT_7X7_250"}

// Dictionary is a validated predefined dictionary.
type Dictionary struct {
	Name string
	Code gocv.ArucoDictionaryCode
	Bits int // marker grid side, e.g. 4 for 4x4
	Size int // number of markers, valid IDs are 0..Size-1
}

// LookupDictionary resolves a dictionary by name. Names are case-insensitive
// and the DICT_ prefix is optional.
func LookupDictionary(name string) (Dictionary, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(key, "DICT_") {
		key = "DICT_" + key
	}
	code, ok := dictionaries[key]
	if !ok {
		return Dictionary{}, fmt.Errorf("unknown marker dictionary %q (known: %s)", name, strings.Join(DictionaryNames(), ", "))
	}
	bits, size, err := parseDictionaryName(key)
	if err != nil {
		return Dictionary{}, err
	}
	return Dictionary{Name: key, Code: code, Bits: bits, Size: size}, nil
}

// LookupDictionaries resolves every name, failing on the first unknown one.
// Duplicates are dropped so a dictionary is never scanned twice per frame.
func LookupDictionaries(names []string) ([]Dictionary, error) {
	out := make([]Dictionary, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		d, err := LookupDictionary(n)
		if err != nil {
			return nil, err
		}
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out, nil
}

// DictionaryNames lists the supported dictionary names, sorted.
func DictionaryNames() []string {
	names := make([]string, 0, len(dictionaries))
	for n := range dictionaries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidID reports whether id exists in the dictionary.
func (d Dictionary) ValidID(id int) bool {
	return id >= 0 && id < d.Size
}

// parseDictionaryName splits "DICT_5X5_100" into 5 and 100.
func parseDictionaryName(name string) (bits, size int, err error) {
	parts := strings.Split(strings.TrimPrefix(name, "DICT_"), "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed dictionary name %q", name)
	}
	grid := strings.Split(parts[0], "X")
	if len(grid) != 2 || grid[0] != grid[1] {
		return 0, 0, fmt.Errorf("malformed dictionary grid %q", parts[0])
	}
	if bits, err = strconv.Atoi(grid[0]); err != nil {
		return 0, 0, fmt.Errorf("malformed dictionary grid %q: %w", parts[0], err)
	}
	if size, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("malformed dictionary size %q: %w", parts[1], err)
	}
	return bits, size, nil
}

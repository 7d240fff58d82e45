// Command markergen writes printable ArUco marker images.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"marker-tracker/internal/marker"
)

var (
	dictName string
	firstID  int
	count    int
	side     int
	margin   int
	outDir   string
)

var rootCmd = &cobra.Command{
	Use:   "markergen",
	Short: "Write PNG images for a range of marker IDs",
	Example: "  markergen --dict 4X4_50 --first 0 --count 10 --out markers/\n" +
		"  markergen --list",
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&dictName, "dict", "DICT_4X4_50", "dictionary to draw from")
	f.IntVar(&firstID, "first", 0, "first marker ID")
	f.IntVar(&count, "count", 1, "number of consecutive IDs")
	f.IntVar(&side, "side", 200, "marker side in pixels")
	f.IntVar(&margin, "margin", 40, "white border in pixels")
	f.StringVar(&outDir, "out", ".", "output directory")
	f.Bool("list", false, "list the known dictionaries and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, name := range marker.DictionaryNames() {
			fmt.Println(name)
		}
		return nil
	}

	dict, err := marker.LookupDictionary(dictName)
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}
	if !dict.ValidID(firstID) || !dict.ValidID(firstID+count-1) {
		return fmt.Errorf("IDs %d-%d out of range for %s (0-%d)", firstID, firstID+count-1, dict.Name, dict.Size-1)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	for id := firstID; id < firstID+count; id++ {
		img, err := marker.GenerateImage(dict, id, side, margin)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s_%04d.png", dict.Name, id))
		ok := gocv.IMWrite(path, img)
		img.Close()
		if !ok {
			return fmt.Errorf("failed to write %s", path)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

// Command markertest runs multi-dictionary marker detection on a still image
// and prints what it found.
package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"

	"marker-tracker/internal/marker"
)

var dicts []string

var rootCmd = &cobra.Command{
	Use:   "markertest <image>",
	Short: "Detect ArUco markers in a PNG, JPEG or TIFF image",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringSliceVar(&dicts, "dict", nil, "dictionaries to scan (default: the tracker defaults)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels\n", format, bounds.Dx(), bounds.Dy())

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	detector, err := marker.NewArucoDetector(dicts)
	if err != nil {
		return err
	}
	defer detector.Close()

	names := make([]string, 0, len(detector.Dictionaries()))
	for _, d := range detector.Dictionaries() {
		names = append(names, d.Name)
	}
	fmt.Printf("Dictionaries: %s\n", strings.Join(names, ", "))

	dets, err := detector.Detect(mat)
	if err != nil {
		return err
	}

	fmt.Printf("\nDetected %d markers:\n", len(dets))
	fmt.Printf("%-6s %-14s %10s %10s %10s\n", "ID", "Dictionary", "X", "Y", "Perimeter")
	fmt.Println(strings.Repeat("-", 54))
	for _, d := range dets {
		c := d.Center()
		fmt.Printf("%-6d %-14s %10.1f %10.1f %10.1f\n", d.ID, d.Dictionary, c.X, c.Y, d.Corners.Perimeter())
	}
	return nil
}

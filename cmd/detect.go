package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"purkinje-tracer/internal/fit"
	"purkinje-tracer/internal/frame"
	"purkinje-tracer/internal/purkinje"
)

var (
	detectImagePath string
	detectJSON      bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect pupil, P1 and P4 in a single frame",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect()
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectImagePath, "image", "i", "", "Path to the eye frame (PNG, JPEG or TIFF)")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Emit the result as JSON instead of a table")
	detectCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(detectCmd)
}

func runDetect() error {
	img, err := frame.Load(detectImagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	params, err := buildParams(img.Cols(), img.Rows())
	if err != nil {
		return err
	}

	loc := purkinje.NewLocator(params)
	defer loc.Close()
	res := loc.Detect(img)

	if detectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Frame: %s (%dx%d), crop %dx%d at (%d,%d)\n",
		detectImagePath, img.Cols(), img.Rows(),
		res.Crop.Width, res.Crop.Height, res.Crop.X, res.Crop.Y)
	fmt.Printf("Pupil fit: %s, hull points: %d\n\n", params.PupilFit, len(res.Hull))

	fmt.Printf("%-8s %-7s %10s %10s %8s %8s %8s %10s\n",
		"Feature", "Found", "X", "Y", "Width", "Height", "Angle", "Mass")
	printSpotRow("Pupil", res.PupilFound(), res.Pupil)
	printSpotRow("P1", res.P1Found(), res.P1)
	printSpotRow("P4", res.P4Found(), res.P4)
	return nil
}

func printSpotRow(name string, found bool, s fit.Spot) {
	fmt.Printf("%-8s %-7v %10.2f %10.2f %8.2f %8.2f %8.1f %10.0f\n",
		name, found, s.Center.X, s.Center.Y, s.Width, s.Height, s.Angle, s.Mass)
}

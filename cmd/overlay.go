package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"purkinje-tracer/internal/frame"
	"purkinje-tracer/internal/purkinje"
)

var (
	overlayImagePath string
	overlayOutPath   string
)

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Render a detection overlay image for parameter tuning",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay()
	},
}

func init() {
	overlayCmd.Flags().StringVarP(&overlayImagePath, "image", "i", "", "Path to the eye frame (PNG, JPEG or TIFF)")
	overlayCmd.Flags().StringVarP(&overlayOutPath, "out", "o", "overlay.png", "Output image path")
	overlayCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(overlayCmd)
}

func runOverlay() error {
	img, err := frame.Load(overlayImagePath)
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

	rendered := purkinje.Overlay(img, res, params)
	defer rendered.Close()
	if rendered.Empty() {
		return fmt.Errorf("nothing to render for %s", overlayImagePath)
	}
	if ok := gocv.IMWrite(overlayOutPath, rendered); !ok {
		return fmt.Errorf("failed to write %s", overlayOutPath)
	}

	log.Printf("pupil found=%v p1 found=%v p4 found=%v", res.PupilFound(), res.P1Found(), res.P4Found())
	log.Printf("wrote %s", overlayOutPath)
	return nil
}

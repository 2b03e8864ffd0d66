// Package cmd implements the purkinje-tracer command line interface.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"purkinje-tracer/internal/pupil"
	"purkinje-tracer/internal/purkinje"
	"purkinje-tracer/internal/version"
	"purkinje-tracer/pkg/geometry"
)

var rootCmd = &cobra.Command{
	Use:     "purkinje-tracer",
	Version: fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.GitCommit, version.BuildTime),
	Short: "Pupil and dual-Purkinje reflection tracker for eye-camera frames",
	Long: `purkinje-tracer locates the pupil boundary and the first and fourth
Purkinje reflections (P1, P4) in single-channel eye images, with sub-pixel
precision. Coordinates are reported relative to the crop origin.`,
}

// Detection parameter flags, shared by all subcommands. Zero-valued numeric
// flags mean "use the default".
var (
	flagCrop          string
	flagBlur          int
	flagPupilThresh   float64
	flagSearchRadius  int
	flagPupilDs       int
	flagFitDs         int
	flagPupilFit      string
	flagP1Ds          int
	flagP1Thresh      float64
	flagP1Radius      int
	flagP1MinDiameter float64
	flagErode         int
	flagP4Radius      int
	flagP4MinDiameter float64
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagCrop, "crop", "", "Crop rectangle as x,y,w,h (default: full frame)")
	pf.IntVar(&flagBlur, "blur", 2, "Gaussian blur radius")
	pf.Float64Var(&flagPupilThresh, "pupil-threshold", 80, "Pupil darkness threshold (0-255)")
	pf.IntVar(&flagSearchRadius, "search-radius", 100, "Pupil search window half-side in pixels")
	pf.IntVar(&flagPupilDs, "pupil-downsample", 8, "Downsampling factor for the coarse pupil centroid")
	pf.IntVar(&flagFitDs, "fit-downsample", 1, "Downsampling factor for the moments-variant pupil fit")
	pf.StringVar(&flagPupilFit, "pupil-fit", "moments", "Pupil fitting strategy: moments or ellipse")
	pf.IntVar(&flagP1Ds, "p1-downsample", 2, "Downsampling factor for the coarse P1 centroid")
	pf.Float64Var(&flagP1Thresh, "p1-threshold", 160, "P1 brightness threshold (0-255)")
	pf.IntVar(&flagP1Radius, "p1-radius", 12, "P1 fitting region half-side in pixels")
	pf.Float64Var(&flagP1MinDiameter, "p1-min-diameter", 3, "Minimum valid P1 minor extent in pixels")
	pf.IntVar(&flagErode, "erode", 5, "Pupil hull mask erosion radius for the P4 search (0 disables)")
	pf.IntVar(&flagP4Radius, "p4-radius", 8, "P4 fitting region half-side in pixels")
	pf.Float64Var(&flagP4MinDiameter, "p4-min-diameter", 2, "Minimum valid P4 minor extent in pixels")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildParams assembles detection parameters from the shared flags. imgW and
// imgH bound the crop; an unset crop flag means the full frame.
func buildParams(imgW, imgH int) (purkinje.Params, error) {
	p := purkinje.DefaultParams()
	p.BlurRadius = flagBlur
	p.PupilThreshold = flagPupilThresh
	p.SearchRadius = flagSearchRadius
	p.PupilDownsample = flagPupilDs
	p.PupilFitDownsample = flagFitDs
	p.P1Downsample = flagP1Ds
	p.P1Threshold = flagP1Thresh
	p.P1Radius = flagP1Radius
	p.P1MinDiameter = flagP1MinDiameter
	p.MaskErodeRadius = flagErode
	p.P4Radius = flagP4Radius
	p.P4MinDiameter = flagP4MinDiameter

	switch flagPupilFit {
	case "moments":
		p.PupilFit = pupil.FitMoments
	case "ellipse":
		p.PupilFit = pupil.FitEllipse
	default:
		return p, fmt.Errorf("unknown pupil fit strategy %q (want moments or ellipse)", flagPupilFit)
	}

	crop := geometry.RectInt{Width: imgW, Height: imgH}
	if flagCrop != "" {
		parsed, err := parseCrop(flagCrop)
		if err != nil {
			return p, err
		}
		crop = geometry.ClipRect(parsed, crop)
		if crop.Empty() {
			return p, fmt.Errorf("crop %q does not overlap the %dx%d frame", flagCrop, imgW, imgH)
		}
	}
	p.Crop = crop
	return p, nil
}

func parseCrop(s string) (geometry.RectInt, error) {
	var r geometry.RectInt
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return r, fmt.Errorf("invalid crop %q: want x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, part := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &vals[i]); err != nil {
			return r, fmt.Errorf("invalid crop component %q: %w", part, err)
		}
	}
	return geometry.RectInt{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

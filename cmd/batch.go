package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"purkinje-tracer/internal/frame"
	"purkinje-tracer/internal/purkinje"
)

var (
	batchDir string
	batchOut string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a directory of frames in name order",
	Long: `batch runs detection over every image in a directory, in lexical
name order, and writes one JSON object per frame. Frame files are expected to
sort correctly by name (e.g. zero-padded frame numbers).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch()
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory of eye frames")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Output JSONL file (default: stdout)")
	batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// batchRecord is one output line: the frame name, the detection result and
// the processing time.
type batchRecord struct {
	Frame  string          `json:"frame"`
	Millis float64         `json:"millis"`
	Result purkinje.Result `json:"result"`
}

func runBatch() error {
	files, err := listFrames(batchDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no frames found in %s", batchDir)
	}

	out := os.Stdout
	if batchOut != "" {
		f, err := os.Create(batchOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("tracking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var loc *purkinje.Locator
	defer func() {
		if loc != nil {
			loc.Close()
		}
	}()

	millis := make([]float64, 0, len(files))
	found := 0
	for _, path := range files {
		img, err := frame.Load(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			bar.Add(1)
			continue
		}

		// The locator is sized by the first frame; the whole sequence is
		// expected to share one camera geometry.
		if loc == nil {
			params, err := buildParams(img.Cols(), img.Rows())
			if err != nil {
				img.Close()
				return err
			}
			loc = purkinje.NewLocator(params)
		}

		start := time.Now()
		res := loc.Detect(img)
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		img.Close()

		millis = append(millis, elapsed)
		if res.P1Found() && res.P4Found() {
			found++
		}
		if err := enc.Encode(batchRecord{Frame: filepath.Base(path), Millis: elapsed, Result: res}); err != nil {
			return err
		}
		bar.Add(1)
	}
	fmt.Fprintln(os.Stderr)

	if len(millis) > 0 {
		sort.Float64s(millis)
		log.Printf("processed %d frames, P1+P4 found on %d (%.1f%%)",
			len(millis), found, 100*float64(found)/float64(len(millis)))
		log.Printf("frame time: mean %.3f ms, stddev %.3f ms, p50 %.3f ms, p95 %.3f ms",
			stat.Mean(millis, nil), stat.StdDev(millis, nil),
			stat.Quantile(0.50, stat.Empirical, millis, nil),
			stat.Quantile(0.95, stat.Empirical, millis, nil))
	}
	return nil
}

// listFrames returns the image files in dir, sorted by name.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

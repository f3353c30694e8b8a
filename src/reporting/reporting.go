// Package reporting contains plots that summarise sketches.
package reporting

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

// CountHistogram saves a histogram of the k-mer counts in a sketch, the image type comes from the file extension
func CountHistogram(records []kmer.Record, bins int, title, fileName string) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to plot")
	}
	if bins < 1 {
		return fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	counts := make(plotter.Values, len(records))
	for i, r := range records {
		counts[i] = float64(r.Count)
	}
	hist, err := plotter.NewHist(counts, bins)
	if err != nil {
		return err
	}
	countPlot, err := plot.New()
	if err != nil {
		return err
	}
	countPlot.Title.Text = title
	countPlot.X.Label.Text = "k-mer count"
	countPlot.Y.Label.Text = "number of k-mers"
	countPlot.Add(hist)
	if filepath.Ext(fileName) == "" {
		fileName += ".png"
	}
	return countPlot.Save(6*vg.Inch, 4*vg.Inch, fileName)
}

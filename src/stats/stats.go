// Package stats tallies the density of a minimizer scheme and the distances between consecutive minimizers.
package stats

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Tally accumulates minimizer counts over many sequences
type Tally struct {
	Width      int   // k-mers per window
	Sequences  int   // sequences (or fragments) added
	Kmers      int   // k-mers seen
	Minimizers int   // minimizers selected
	Gaps       []int // Gaps[d] counts consecutive minimizers d bases apart, d is at most Width
}

// NewTally returns an empty tally for windows of w k-mers
func NewTally(w int) *Tally {
	if w < 1 {
		w = 1
	}
	return &Tally{Width: w, Gaps: make([]int, w+1)}
}

// Add records the minimizer positions of one sequence holding kmers k-mers
//
// positions are in output order; canonical ties can step back, so a gap is the distance either way
func (t *Tally) Add(positions []int, kmers int) {
	t.Sequences++
	t.Kmers += kmers
	t.Minimizers += len(positions)
	for i := 1; i < len(positions); i++ {
		d := positions[i] - positions[i-1]
		if d < 0 {
			d = -d
		}
		if d >= len(t.Gaps) {
			t.Gaps = append(t.Gaps, make([]int, d-len(t.Gaps)+1)...)
		}
		t.Gaps[d]++
	}
}

// Density is the fraction of k-mers selected as minimizers
func (t *Tally) Density() float64 {
	if t.Kmers == 0 {
		return 0
	}
	return float64(t.Minimizers) / float64(t.Kmers)
}

// Expected is the density of a random minimizer, 2/(w+1)
func (t *Tally) Expected() float64 {
	return 2 / float64(t.Width+1)
}

// MeanGap is the average distance between consecutive minimizers
func (t *Tally) MeanGap() float64 {
	total, n := 0, 0
	for d, count := range t.Gaps {
		total += d * count
		n += count
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// Write prints a plain text report
func (t *Tally) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "sequences\t%d\nk-mers\t%d\nminimizers\t%d\ndensity\t%.6f\nexpected density\t%.6f\nmean gap\t%.3f\n", t.Sequences, t.Kmers, t.Minimizers, t.Density(), t.Expected(), t.MeanGap()); err != nil {
		return err
	}
	for d := 1; d < len(t.Gaps); d++ {
		if _, err := fmt.Fprintf(w, "gap %d\t%d\n", d, t.Gaps[d]); err != nil {
			return err
		}
	}
	return nil
}

// Plot saves a bar chart of the gap distribution, the image format follows the file extension (png, svg, pdf...)
func (t *Tally) Plot(path string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("distance between minimizers (density %.4f, expected %.4f)", t.Density(), t.Expected())
	p.X.Label.Text = "gap (bases)"
	p.Y.Label.Text = "count"
	counts := make(plotter.Values, len(t.Gaps)-1)
	labels := make([]string, len(counts))
	for d := 1; d < len(t.Gaps); d++ {
		counts[d-1] = float64(t.Gaps[d])
		labels[d-1] = fmt.Sprint(d)
	}
	bars, err := plotter.NewBarChart(counts, vg.Points(10))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// Package cloud lays out word-frequency data as a word cloud.
//
// Words are placed largest first along an outward spiral from the canvas
// centre. Every glyph is reduced to an axis-aligned bounding box and a word is
// only placed where its box lies inside the canvas and overlaps no earlier
// box. Words that cannot be placed are left out of the result.
//
// Rotation is drawn from a seeded source, so the same frequencies, canvas and
// seed always produce the same layout.
package cloud

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/spacesedan/feedbacklens/internal/models"
)

const (
	DefaultMaxWords    = 100
	DefaultRotateRatio = 0.25
	DefaultMaxAttempts = 20000
	DefaultMinShrinkPx = 6

	// glyph metrics relative to the font size
	charWidthRatio = 0.6
	glyphPadding   = 1

	shrinkFactor = 0.85
)

var ErrInvalidCanvas = errors.New("canvas dimensions must be positive")

// DefaultPalette is cycled in placement order.
var DefaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type OverflowPolicy int

const (
	// OverflowSkip leaves out words with no free position.
	OverflowSkip OverflowPolicy = iota
	// OverflowShrink retries at a smaller font size before leaving a word out.
	OverflowShrink
)

// Options configures Layout. Start from DefaultOptions: zero values of
// MaxWords, MaxAttempts, MinShrinkPx and Palette fall back to their defaults,
// but a zero RotateRatio is honoured and disables rotation.
type Options struct {
	Width       int
	Height      int
	MaxWords    int
	RotateRatio float64
	Overflow    OverflowPolicy
	MaxAttempts int
	MinShrinkPx int
	Seed        uint64
	Palette     []string
}

// DefaultOptions returns the standard settings for a width x height canvas.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:       width,
		Height:      height,
		MaxWords:    DefaultMaxWords,
		RotateRatio: DefaultRotateRatio,
		Overflow:    OverflowSkip,
		MaxAttempts: DefaultMaxAttempts,
		MinShrinkPx: DefaultMinShrinkPx,
		Palette:     DefaultPalette,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxWords <= 0 {
		o.MaxWords = DefaultMaxWords
	}
	if o.RotateRatio < 0 {
		o.RotateRatio = 0
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MinShrinkPx <= 0 {
		o.MinShrinkPx = DefaultMinShrinkPx
	}
	if len(o.Palette) == 0 {
		o.Palette = DefaultPalette
	}
	return o
}

// FontRange returns the smallest and largest font size for a canvas width.
func FontRange(width int) (minPx, maxPx int) {
	minPx = max(10, int(math.Round(float64(width)*0.018)))
	maxPx = max(minPx+10, int(math.Round(float64(width)*0.085)))
	return minPx, maxPx
}

// GridSize is the spiral step for a canvas width.
func GridSize(width int) int {
	return max(8, int(math.Round(12*float64(width)/1024)))
}

// FontSize maps freq onto [minPx, maxPx] on a logarithmic scale.
func FontSize(freq, minFreq, maxFreq, minPx, maxPx int) int {
	t := 0.5
	if maxFreq != minFreq {
		lo := math.Log(float64(minFreq) + 1)
		hi := math.Log(float64(maxFreq) + 1)
		t = (math.Log(float64(freq)+1) - lo) / (hi - lo)
	}
	return int(math.Round(float64(minPx) + t*float64(maxPx-minPx)))
}

// Layout places the most frequent words of freq on a Width x Height canvas.
func Layout(freq *models.WordFrequency, opts Options) ([]models.PlacedWord, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("[Cloud] %w: %dx%d", ErrInvalidCanvas, opts.Width, opts.Height)
	}
	opts = opts.withDefaults()

	if freq == nil || freq.Len() == 0 {
		return []models.PlacedWord{}, nil
	}

	words := topWords(freq, opts.MaxWords)
	minFreq, maxFreq := words[len(words)-1].Count, words[0].Count
	minPx, maxPx := FontRange(opts.Width)

	c := newCanvas(opts)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	placed := make([]models.PlacedWord, 0, len(words))
	for _, w := range words {
		size := FontSize(w.Count, minFreq, maxFreq, minPx, maxPx)
		rotation := 0
		if rng.Float64() < opts.RotateRatio {
			rotation = 90
		}

		pw, ok := c.place(w.Word, size, rotation)
		if !ok {
			continue
		}
		pw.ColorIndex = len(placed) % len(opts.Palette)
		pw.Color = opts.Palette[pw.ColorIndex]
		placed = append(placed, pw)
	}

	return placed, nil
}

// topWords returns up to n entries by descending count; ties keep
// first-seen order.
func topWords(freq *models.WordFrequency, n int) []models.WordCount {
	entries := freq.Entries()
	slices.SortStableFunc(entries, func(a, b models.WordCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// LayoutMany lays out independent canvases concurrently. The result at index
// i belongs to freqs[i]. Errors from all canvases are joined.
func LayoutMany(freqs []*models.WordFrequency, opts Options) ([][]models.PlacedWord, error) {
	out := make([][]models.PlacedWord, len(freqs))
	errs := make([]error, len(freqs))

	var wg sync.WaitGroup
	for i, f := range freqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i], errs[i] = Layout(f, opts)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

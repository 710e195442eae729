package cloud

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/feedbacklens/internal/models"
)

func freqOf(pairs ...any) *models.WordFrequency {
	f := models.NewWordFrequency()
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Add(pairs[i].(string), pairs[i+1].(int))
	}
	return f
}

func sampleFrequencies(n int) *models.WordFrequency {
	f := models.NewWordFrequency()
	for i := 0; i < n; i++ {
		f.Add(fmt.Sprintf("word%02d", i), n-i)
	}
	return f
}

func assertNoOverlaps(t *testing.T, words []models.PlacedWord) {
	t.Helper()
	for i := range words {
		for j := i + 1; j < len(words); j++ {
			assert.False(t, words[i].Overlaps(words[j]),
				"%q %+v overlaps %q %+v", words[i].Text, words[i], words[j].Text, words[j])
		}
	}
}

func assertInBounds(t *testing.T, words []models.PlacedWord, w, h int) {
	t.Helper()
	for _, pw := range words {
		assert.GreaterOrEqual(t, pw.X, 0, pw.Text)
		assert.GreaterOrEqual(t, pw.Y, 0, pw.Text)
		assert.LessOrEqual(t, pw.X+pw.Width, w, pw.Text)
		assert.LessOrEqual(t, pw.Y+pw.Height, h, pw.Text)
	}
}

func TestLayout_InvalidCanvas(t *testing.T) {
	for _, dims := range [][2]int{{0, 100}, {100, 0}, {-5, 100}} {
		_, err := Layout(freqOf("word", 1), DefaultOptions(dims[0], dims[1]))
		assert.ErrorIs(t, err, ErrInvalidCanvas)
	}
}

func TestLayout_EmptyFrequencies(t *testing.T) {
	words, err := Layout(models.NewWordFrequency(), DefaultOptions(800, 600))
	require.NoError(t, err)
	assert.Empty(t, words)

	words, err = Layout(nil, DefaultOptions(800, 600))
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestLayout_NoOverlapsAndInBounds(t *testing.T) {
	opts := DefaultOptions(1024, 768)
	opts.Seed = 42

	words, err := Layout(sampleFrequencies(60), opts)
	require.NoError(t, err)

	assert.NotEmpty(t, words)
	assertNoOverlaps(t, words)
	assertInBounds(t, words, opts.Width, opts.Height)
}

func TestLayout_FirstWordAtCentre(t *testing.T) {
	opts := DefaultOptions(800, 600)
	opts.RotateRatio = 0

	words, err := Layout(freqOf("feedback", 10, "app", 3), opts)
	require.NoError(t, err)
	require.NotEmpty(t, words)

	first := words[0]
	assert.Equal(t, "feedback", first.Text)
	assert.InDelta(t, 400, first.X+first.Width/2, 1)
	assert.InDelta(t, 300, first.Y+first.Height/2, 1)
}

func TestLayout_SizeMonotonicInRank(t *testing.T) {
	opts := DefaultOptions(1024, 768)
	opts.Seed = 7

	freq := freqOf("alpha", 50, "beta", 20, "gamma", 20, "delta", 5, "epsilon", 1)
	words, err := Layout(freq, opts)
	require.NoError(t, err)
	require.Len(t, words, 5)

	for i := 1; i < len(words); i++ {
		assert.GreaterOrEqual(t, words[i-1].FontSizePx, words[i].FontSizePx)
	}

	minPx, maxPx := FontRange(1024)
	assert.Equal(t, maxPx, words[0].FontSizePx)
	assert.Equal(t, minPx, words[len(words)-1].FontSizePx)
}

func TestLayout_TiesKeepFirstSeenOrder(t *testing.T) {
	opts := DefaultOptions(800, 600)
	words, err := Layout(freqOf("zeta", 3, "alpha", 3, "mid", 5), opts)
	require.NoError(t, err)
	require.Len(t, words, 3)

	assert.Equal(t, []string{"mid", "zeta", "alpha"}, []string{words[0].Text, words[1].Text, words[2].Text})
}

func TestLayout_MaxWords(t *testing.T) {
	opts := DefaultOptions(1024, 768)
	opts.MaxWords = 10

	words, err := Layout(sampleFrequencies(40), opts)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(words), 10)
	for _, w := range words {
		assert.Less(t, w.Text, "word10")
	}
}

func TestLayout_RotationOnlyZeroOrNinety(t *testing.T) {
	opts := DefaultOptions(1024, 768)
	opts.RotateRatio = 0.5
	opts.Seed = 3

	words, err := Layout(sampleFrequencies(30), opts)
	require.NoError(t, err)

	rotated := 0
	for _, w := range words {
		assert.Contains(t, []int{0, 90}, w.RotationDeg)
		if w.RotationDeg == 90 {
			rotated++
			assert.Greater(t, w.Height, w.Width, "%q rotated box must be tall", w.Text)
		}
	}
	assert.Positive(t, rotated)
}

func TestLayout_RotateRatioDefaults(t *testing.T) {
	countRotated := func(opts Options) int {
		words, err := Layout(sampleFrequencies(40), opts)
		require.NoError(t, err)
		n := 0
		for _, w := range words {
			if w.RotationDeg == 90 {
				n++
			}
		}
		return n
	}

	assert.Equal(t, DefaultRotateRatio, DefaultOptions(1024, 768).RotateRatio)
	assert.Zero(t, countRotated(Options{Width: 1024, Height: 768}), "literal options leave rotation off")

	opts := DefaultOptions(1024, 768)
	opts.Seed = 3
	assert.Positive(t, countRotated(opts))

	opts.RotateRatio = 0
	assert.Zero(t, countRotated(opts))
}

func TestLayout_DeterministicPerSeed(t *testing.T) {
	opts := DefaultOptions(640, 480)
	opts.Seed = 99

	a, err := Layout(sampleFrequencies(25), opts)
	require.NoError(t, err)
	b, err := Layout(sampleFrequencies(25), opts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestLayout_OverflowPolicies(t *testing.T) {
	// A tiny canvas that cannot hold the long word at its natural size.
	freq := freqOf("internationalization", 10, "ok", 1)

	skip := DefaultOptions(120, 40)
	skip.RotateRatio = 0
	words, err := Layout(freq, skip)
	require.NoError(t, err)
	for _, w := range words {
		assert.NotEqual(t, "internationalization", w.Text)
	}

	shrink := skip
	shrink.Overflow = OverflowShrink
	words, err = Layout(freq, shrink)
	require.NoError(t, err)

	var found bool
	for _, w := range words {
		if w.Text == "internationalization" {
			found = true
			assert.LessOrEqual(t, w.Width, 120)
		}
	}
	assert.True(t, found, "shrink policy should fit the long word")
	assertNoOverlaps(t, words)
	assertInBounds(t, words, 120, 40)
}

func TestLayout_ColorsCycle(t *testing.T) {
	opts := DefaultOptions(1024, 768)
	opts.Palette = []string{"#000", "#fff"}

	words, err := Layout(sampleFrequencies(5), opts)
	require.NoError(t, err)

	for i, w := range words {
		assert.Equal(t, i%2, w.ColorIndex)
		assert.Equal(t, opts.Palette[i%2], w.Color)
	}
}

func TestFontSize(t *testing.T) {
	assert.Equal(t, 15, FontSize(4, 4, 4, 10, 20), "equal frequencies use the midpoint")
	assert.Equal(t, 10, FontSize(1, 1, 100, 10, 20))
	assert.Equal(t, 20, FontSize(100, 1, 100, 10, 20))
}

func TestFontRangeAndGrid(t *testing.T) {
	minPx, maxPx := FontRange(1024)
	assert.Equal(t, 18, minPx)
	assert.Equal(t, 87, maxPx)

	minPx, maxPx = FontRange(200)
	assert.Equal(t, 10, minPx)
	assert.Equal(t, 20, maxPx)

	assert.Equal(t, 12, GridSize(1024))
	assert.Equal(t, 8, GridSize(300))
}

func TestLayoutMany(t *testing.T) {
	opts := DefaultOptions(640, 480)
	out, err := LayoutMany([]*models.WordFrequency{sampleFrequencies(10), freqOf("solo", 1)}, opts)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out[1], 1)
	assert.Equal(t, "solo", out[1][0].Text)

	_, err = LayoutMany([]*models.WordFrequency{sampleFrequencies(3)}, DefaultOptions(0, 10))
	assert.ErrorIs(t, err, ErrInvalidCanvas)
}

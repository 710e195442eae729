package cloud

import (
	"math"
	"unicode/utf8"

	"github.com/spacesedan/feedbacklens/internal/models"
)

type placementState int

const (
	searching placementState = iota
	placed
	skipped
)

type rect struct {
	x, y, w, h int
}

func (r rect) overlaps(o rect) bool {
	return r.x < o.x+o.w && o.x < r.x+r.w &&
		r.y < o.y+o.h && o.y < r.y+r.h
}

type canvas struct {
	width, height int
	grid          int
	opts          Options
	boxes         []rect
}

func newCanvas(opts Options) *canvas {
	return &canvas{
		width:  opts.Width,
		height: opts.Height,
		grid:   GridSize(opts.Width),
		opts:   opts,
	}
}

// measure approximates the glyph box of text at size px.
func measure(text string, size, rotation int) (w, h int) {
	runes := utf8.RuneCountInString(text)
	w = int(math.Ceil(charWidthRatio*float64(size)*float64(runes))) + 2*glyphPadding
	h = size + 2*glyphPadding
	if rotation == 90 {
		w, h = h, w
	}
	return w, h
}

// place searches for a free position for text, shrinking it first when the
// overflow policy allows.
func (c *canvas) place(text string, size, rotation int) (models.PlacedWord, bool) {
	for {
		box, state := c.search(measure(text, size, rotation))
		if state == placed {
			c.boxes = append(c.boxes, box)
			return models.PlacedWord{
				Text:        text,
				FontSizePx:  size,
				X:           box.x,
				Y:           box.y,
				Width:       box.w,
				Height:      box.h,
				RotationDeg: rotation,
			}, true
		}

		if c.opts.Overflow != OverflowShrink {
			return models.PlacedWord{}, false
		}
		next := int(math.Floor(float64(size) * shrinkFactor))
		if next < c.opts.MinShrinkPx || next >= size {
			return models.PlacedWord{}, false
		}
		size = next
	}
}

// search walks an Archimedean spiral out from the centre until a box of
// w x h fits, the spiral leaves the canvas, or attempts run out.
func (c *canvas) search(w, h int) (rect, placementState) {
	if w > c.width || h > c.height {
		return rect{}, skipped
	}

	cx, cy := float64(c.width)/2, float64(c.height)/2
	maxRadius := math.Hypot(cx, cy) + float64(c.grid)
	grid := float64(c.grid)

	var theta, radius float64
	state := searching
	var box rect

	for attempt := 0; state == searching; attempt++ {
		if attempt >= c.opts.MaxAttempts || radius > maxRadius {
			state = skipped
			break
		}

		px := cx + radius*math.Cos(theta)
		py := cy + radius*math.Sin(theta)
		candidate := rect{
			x: int(math.Round(px - float64(w)/2)),
			y: int(math.Round(py - float64(h)/2)),
			w: w,
			h: h,
		}
		if c.inBounds(candidate) && !c.collides(candidate) {
			box = candidate
			state = placed
			break
		}

		// Keep consecutive probes about one grid step apart along the arc;
		// the radius grows by one grid step per full turn.
		theta += grid / math.Max(radius, grid)
		radius = grid * theta / (2 * math.Pi)
	}

	return box, state
}

func (c *canvas) inBounds(r rect) bool {
	return r.x >= 0 && r.y >= 0 && r.x+r.w <= c.width && r.y+r.h <= c.height
}

func (c *canvas) collides(r rect) bool {
	for _, b := range c.boxes {
		if r.overlaps(b) {
			return true
		}
	}
	return false
}

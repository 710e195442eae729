package models

// WordFrequency maps lowercase tokens to occurrence counts and remembers the
// order in which tokens were first added.
type WordFrequency struct {
	order  []string
	counts map[string]int
}

func NewWordFrequency() *WordFrequency {
	return &WordFrequency{counts: make(map[string]int)}
}

// Add increments word by n. Non-positive n and empty words are ignored.
func (f *WordFrequency) Add(word string, n int) {
	if word == "" || n <= 0 {
		return
	}
	if _, ok := f.counts[word]; !ok {
		f.order = append(f.order, word)
	}
	f.counts[word] += n
}

func (f *WordFrequency) Count(word string) int {
	return f.counts[word]
}

func (f *WordFrequency) Len() int {
	return len(f.order)
}

// Entries returns the words with their counts in first-seen order.
func (f *WordFrequency) Entries() []WordCount {
	out := make([]WordCount, len(f.order))
	for i, w := range f.order {
		out[i] = WordCount{Word: w, Count: f.counts[w]}
	}
	return out
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PlacedWord is one glyph on the word-cloud canvas. X and Y are the top-left
// corner of its bounding box; Width and Height already account for rotation.
type PlacedWord struct {
	Text        string `json:"text"`
	FontSizePx  int    `json:"font_size_px"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RotationDeg int    `json:"rotation_deg"`
	ColorIndex  int    `json:"color_index"`
	Color       string `json:"color"`
}

// Overlaps reports whether the bounding boxes of a and b intersect.
// Boxes that only share an edge do not overlap.
func (a PlacedWord) Overlaps(b PlacedWord) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

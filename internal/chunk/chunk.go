// Package chunk splits long text into bounded, ordered slices for the
// extraction backend.
package chunk

import (
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// ErrInvalidSize is returned when the requested chunk size is not positive.
var ErrInvalidSize = eris.New("chunk: max chars must be > 0")

// Chunk is one slice of a document's text. Index is 0-based; Total is the
// number of chunks the document was split into.
type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// Count returns how many chunks Split yields for text. Sizes count code
// points, so a chunk never splits a UTF-8 sequence. Empty text counts as one
// chunk. A non-positive maxChars, which Split rejects, counts as zero.
func Count(text string, maxChars int) int {
	if maxChars <= 0 {
		return 0
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 1
	}
	return (n + maxChars - 1) / maxChars
}

// Split returns a lazy sequence of chunks of at most maxChars code points.
// Cuts fall at fixed offsets with no regard for word boundaries. The
// sequence can be ranged over any number of times with identical results.
func Split(text string, maxChars int) (iter.Seq[Chunk], error) {
	if maxChars <= 0 {
		return nil, ErrInvalidSize
	}
	total := Count(text, maxChars)

	return func(yield func(Chunk) bool) {
		if text == "" {
			yield(Chunk{Index: 0, Total: 1})
			return
		}
		rest := text
		for idx := 0; rest != ""; idx++ {
			end := byteOffset(rest, maxChars)
			if !yield(Chunk{Text: rest[:end], Index: idx, Total: total}) {
				return
			}
			rest = rest[end:]
		}
	}, nil
}

// Collect splits text and materializes the chunks.
func Collect(text string, maxChars int) ([]Chunk, error) {
	seq, err := Split(text, maxChars)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// byteOffset returns the byte index just past the first n runes of s.
func byteOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docqa/internal/document"
)

// ErrInvalidChunkSize is returned for a chunk size below 1, or outside a
// SizeRange.
var ErrInvalidChunkSize = errors.New("invalid chunk size")

// Split partitions text into consecutive chunks of at most maxWords words.
// Words keep their original casing and are rejoined with single spaces.
// Empty or whitespace-only text yields no chunks.
func Split(text string, maxWords int) ([]document.Chunk, error) {
	if maxWords < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, maxWords)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	chunks := make([]document.Chunk, 0, (len(words)+maxWords-1)/maxWords)
	for i := 0; i < len(words); i += maxWords {
		end := min(i+maxWords, len(words))
		chunks = append(chunks, document.Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[i:end], " "),
		})
	}
	return chunks, nil
}

// SizeRange bounds the chunk size a user may pick.
type SizeRange struct {
	Default int
	Min     int
	Max     int
	Step    int
}

// DefaultSizeRange returns the 100..500 words range in steps of 50, default 200.
func DefaultSizeRange() SizeRange {
	return SizeRange{
		Default: 200,
		Min:     100,
		Max:     500,
		Step:    50,
	}
}

// Check reports whether n is inside the range and on a step boundary.
func (r SizeRange) Check(n int) error {
	if n < r.Min || n > r.Max {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidChunkSize, n, r.Min, r.Max)
	}
	if r.Step > 0 && (n-r.Min)%r.Step != 0 {
		return fmt.Errorf("%w: %d must be %d plus a multiple of %d", ErrInvalidChunkSize, n, r.Min, r.Step)
	}
	return nil
}

// Resolve returns the default when n is zero, otherwise n.
func (r SizeRange) Resolve(n int) int {
	if n == 0 {
		return r.Default
	}
	return n
}

// Increase returns n moved one step up, capped at Max.
func (r SizeRange) Increase(n int) int {
	return min(n+r.step(), r.Max)
}

// Decrease returns n moved one step down, floored at Min.
func (r SizeRange) Decrease(n int) int {
	return max(n-r.step(), r.Min)
}

// Validate checks the range itself is usable.
func (r SizeRange) Validate() error {
	if r.Min < 1 {
		return fmt.Errorf("chunk size min must be >= 1, got %d", r.Min)
	}
	if r.Min > r.Max {
		return fmt.Errorf("chunk size min %d exceeds max %d", r.Min, r.Max)
	}
	if r.Step < 1 {
		return fmt.Errorf("chunk size step must be >= 1, got %d", r.Step)
	}
	if err := r.Check(r.Default); err != nil {
		return fmt.Errorf("default: %w", err)
	}
	return nil
}

func (r SizeRange) step() int {
	if r.Step <= 0 {
		return 1
	}
	return r.Step
}

// Package chunk splits documents into overlapping passages for embedding.
package chunk

import (
	"strings"
)

// SplitterConfig holds configuration for the splitter.
type SplitterConfig struct {
	ChunkSize    int // Maximum chunk size in characters
	ChunkOverlap int // Target overlap between adjacent chunks in characters
}

// DefaultSplitterConfig returns default splitter configuration.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    500,
		ChunkOverlap: 50,
	}
}

// defaultSeparators is the separator priority order: paragraph breaks first,
// then line breaks, sentence boundaries, spaces, and finally bare character
// positions when nothing else fits.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits free text into ordered, overlapping chunks. Splitting is a
// pure function of the input: the same text always produces the same chunks
// in the same order.
type Splitter struct {
	config     SplitterConfig
	separators []string
}

// NewSplitter creates a new Splitter with the given configuration.
func NewSplitter(cfg SplitterConfig) *Splitter {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultSplitterConfig().ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultSplitterConfig().ChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 2
	}
	return &Splitter{
		config:     cfg,
		separators: defaultSeparators,
	}
}

// Split breaks text into chunks of at most ChunkSize characters. Adjacent
// chunks share up to ChunkOverlap trailing/leading characters so that
// information straddling a boundary survives in at least one chunk. Empty
// input yields no chunks; any non-empty input yields at least one.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return s.mergePieces(s.splitRecursive(text, s.separators))
}

// splitRecursive breaks text into pieces no larger than ChunkSize, using the
// highest-priority separator that occurs in the text and recursing with the
// remaining separators for any piece that is still too large.
func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if len(text) <= s.config.ChunkSize {
		return []string{text}
	}

	sep, remaining := pickSeparator(text, separators)
	if sep == "" {
		return s.hardSplit(text)
	}

	var pieces []string
	for _, part := range splitAfter(text, sep) {
		if len(part) <= s.config.ChunkSize {
			pieces = append(pieces, part)
		} else {
			pieces = append(pieces, s.splitRecursive(part, remaining)...)
		}
	}
	return pieces
}

// pickSeparator returns the first separator present in text, plus the
// lower-priority separators left for recursion. The empty separator always
// matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitAfter splits text on sep, keeping the separator attached to the
// preceding part so that concatenating the parts reproduces the input.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	// SplitAfter yields a trailing empty part when text ends with sep.
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// hardSplit cuts text at bare character positions, the last-resort separator.
// Pieces advance by ChunkSize-ChunkOverlap so consecutive pieces overlap.
func (s *Splitter) hardSplit(text string) []string {
	step := s.config.ChunkSize - s.config.ChunkOverlap
	var pieces []string
	for start := 0; start < len(text); start += step {
		end := start + s.config.ChunkSize
		if end >= len(text) {
			pieces = append(pieces, text[start:])
			break
		}
		pieces = append(pieces, text[start:end])
	}
	return pieces
}

// mergePieces combines small pieces into chunks close to ChunkSize. When a
// chunk is emitted, trailing pieces totalling at most ChunkOverlap characters
// are retained to seed the next chunk.
func (s *Splitter) mergePieces(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		if total+len(piece) > s.config.ChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			for total > s.config.ChunkOverlap || (total+len(piece) > s.config.ChunkSize && total > 0) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += len(piece)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

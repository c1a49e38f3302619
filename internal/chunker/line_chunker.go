package chunker

import (
	"strings"
	"unicode/utf8"

	"ragsync/internal/domain"
)

// DefaultMaxLength is the default chunk bound in characters.
const DefaultMaxLength = 3072

// LineChunker splits text into size-bounded chunks without breaking lines.
type LineChunker struct {
	maxLength int
}

func NewLineChunker(maxLength int) *LineChunker {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &LineChunker{maxLength: maxLength}
}

// Chunk splits the document content and assigns dense zero-based ordinals
// in the order the segments were produced.
func (c *LineChunker) Chunk(document domain.Document) []domain.Chunk {
	segments := Split(document.Content, c.maxLength)
	if len(segments) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, len(segments))
	for i, text := range segments {
		chunks[i] = domain.Chunk{DocumentID: document.ID, Index: i, Text: text}
	}
	return chunks
}

// Split greedily packs whole lines into segments of at most maxLength
// characters, counting one separator per line. A line longer than the bound
// becomes a segment of its own. Segments are trimmed of surrounding
// whitespace; blank segments are dropped.
func Split(text string, maxLength int) []string {
	var (
		segments   []string
		current    strings.Builder
		currentLen int
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
		currentLen = 0
	}
	for _, line := range splitLines(text) {
		lineLen := utf8.RuneCountInString(line)
		if currentLen > 0 && currentLen+lineLen+1 > maxLength {
			flush()
		}
		current.WriteString(line)
		current.WriteByte('\n')
		currentLen += lineLen + 1
	}
	if currentLen > 0 {
		flush()
	}
	return segments
}

// splitLines breaks text on \n, \r\n and \r. A trailing line break does not
// produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

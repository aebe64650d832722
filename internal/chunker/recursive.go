package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"finedge/internal/domain"
)

// RecursiveChunker splits text on the largest boundary that fits: paragraphs
// first, then sentences, then raw runes. Consecutive chunks of a document
// share an overlapping suffix/prefix region.
type RecursiveChunker struct {
	maxChars     int
	overlapChars int
	sentenceRe   *regexp.Regexp
}

func NewRecursiveChunker(maxChars, overlapChars int) *RecursiveChunker {
	if maxChars <= 0 {
		maxChars = 500
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 4
	}
	return &RecursiveChunker{
		maxChars:     maxChars,
		overlapChars: overlapChars,
		sentenceRe:   regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits the document into chunks of at most maxChars runes each.
// Empty content yields zero chunks. The output is deterministic for a given
// input.
func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	content := strings.TrimSpace(document.Content)
	if content == "" {
		return nil, nil
	}

	// Content pieces are bounded so that an overlap prefix always fits.
	budget := c.maxChars - c.overlapChars - 1
	if budget <= 0 {
		budget = c.maxChars
	}
	pieces := c.split(content, budget)

	var texts []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen == 0 {
			return
		}
		texts = append(texts, current.String())
		current.Reset()
		currentLen = 0
	}
	for _, p := range pieces {
		n := len([]rune(p))
		if currentLen > 0 && currentLen+1+n > budget {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(" ")
			currentLen++
		}
		current.WriteString(p)
		currentLen += n
	}
	flush()

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		if i > 0 && c.overlapChars > 0 {
			text = tailRunes(texts[i-1], c.overlapChars) + " " + text
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(i),
			Index:      i,
			Text:       text,
			Source:     document.Source,
			Row:        document.Row,
		})
	}
	return chunks, nil
}

// split recursively breaks text into pieces no longer than budget runes,
// preferring paragraph boundaries, then sentences, then raw runes.
func (c *RecursiveChunker) split(text string, budget int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= budget {
		return []string{text}
	}
	if paragraphs := splitNonEmpty(text, "\n\n"); len(paragraphs) > 1 {
		var out []string
		for _, p := range paragraphs {
			out = append(out, c.split(p, budget)...)
		}
		return out
	}
	if sentences := c.sentenceRe.FindAllString(text, -1); len(sentences) > 1 {
		var out []string
		for _, s := range sentences {
			out = append(out, c.split(s, budget)...)
		}
		return out
	}
	// No boundary left: hard-split on runes.
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

func splitNonEmpty(text, sep string) []string {
	var out []string
	for _, p := range strings.Split(text, sep) {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

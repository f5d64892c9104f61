package semantic

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+[\s]+`)

// Chunker splits document text at sentence boundaries into segments of at
// most MaxSize bytes, tolerating up to Slack bytes of overflow so a
// sentence is not cut in the middle.
type Chunker struct {
	MaxSize int
	Slack   int
}

func NewChunker(maxSize, slack int) *Chunker {
	if maxSize <= 0 {
		maxSize = 800
	}
	if slack < 0 {
		slack = 0
	}
	return &Chunker{MaxSize: maxSize, Slack: slack}
}

// Split returns zero chunks for empty input and exactly one chunk equal to
// the input when the text fits inside MaxSize.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.MaxSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, sentence := range c.sentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > c.MaxSize {
			flush()
		}

		if len(sentence) > c.MaxSize+c.Slack {
			flush()
			for _, piece := range hardSplit(sentence, c.MaxSize) {
				chunks = append(chunks, piece)
			}
			continue
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

func (c *Chunker) sentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err == nil {
		sents := doc.Sentences()
		out := make([]string, 0, len(sents))
		for _, s := range sents {
			if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	// Punctuation-based fallback when segmentation fails.
	var out []string
	rest := text
	for {
		loc := sentenceBoundary.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if trimmed := strings.TrimSpace(rest[:loc[1]]); trimmed != "" {
			out = append(out, trimmed)
		}
		rest = rest[loc[1]:]
	}
	if trimmed := strings.TrimSpace(rest); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}

// hardSplit breaks an oversized sentence at word boundaries. A single
// word longer than maxSize is sliced by bytes so every piece honors the
// size bound.
func hardSplit(sentence string, maxSize int) []string {
	words := strings.Fields(sentence)
	var pieces []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}

	for _, word := range words {
		if len(word) > maxSize {
			flush()
			for len(word) > maxSize {
				pieces = append(pieces, word[:maxSize])
				word = word[maxSize:]
			}
			if word == "" {
				continue
			}
		}
		if current.Len() > 0 && current.Len()+len(word)+1 > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()
	return pieces
}

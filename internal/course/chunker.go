package course

import (
	"regexp"
	"strings"
)

// whitespaceRun collapses any whitespace sequence (including newlines) into
// a single space before sentence splitting.
var whitespaceRun = regexp.MustCompile(`\s+`)

// sentenceEnd marks sentence boundaries: terminal punctuation followed by
// whitespace. Abbreviations are not special-cased; a slightly eager split
// only shortens chunks, never breaks the size bound.
var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// splitSentences splits normalized text into sentences.
// The trailing text after the last boundary is kept as a final sentence even
// without terminal punctuation.
func splitSentences(text string) []string {
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// Cut after the punctuation, before the separating whitespace.
		end := loc[1]
		s := strings.TrimSpace(text[start:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

// chunkText splits text into chunks of at most chunkSize characters on
// sentence boundaries. Consecutive chunks share trailing sentences up to the
// overlap budget so context survives the cut. A single sentence longer than
// chunkSize becomes its own chunk rather than being split mid-sentence.
func (p *Processor) chunkText(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentSize := 0

	for _, s := range sentences {
		add := len(s)
		if len(current) > 0 {
			add++ // joining space
		}

		if currentSize+add > p.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, currentSize = p.overlapTail(current)

			// Re-check against the carried overlap; if the sentence still
			// does not fit, start the chunk without the carry.
			add = len(s)
			if len(current) > 0 {
				add++
			}
			if currentSize+add > p.chunkSize && len(current) > 0 {
				current, currentSize = nil, 0
				add = len(s)
			}
		}

		current = append(current, s)
		currentSize += add
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// overlapTail returns the trailing sentences of chunk whose joined length
// fits in the overlap budget, along with that length.
func (p *Processor) overlapTail(chunk []string) ([]string, int) {
	if p.overlap <= 0 {
		return nil, 0
	}

	var tail []string
	size := 0
	for i := len(chunk) - 1; i >= 0; i-- {
		s := chunk[i]
		add := len(s)
		if len(tail) > 0 {
			add++
		}
		if size+add > p.overlap {
			break
		}
		tail = append([]string{s}, tail...)
		size += add
	}

	return tail, size
}

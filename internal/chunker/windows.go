package chunker

import "strings"

// Windows splits text into pieces of at most size estimated tokens, breaking on
// blank lines, then single lines, then sentences. Consecutive windows share
// about overlap tokens. Text that already fits comes back as one window.
func Windows(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 || EstimateTokens(text) <= size {
		return []string{text}
	}
	if overlap >= size {
		overlap = size / 4
	}

	var units []string
	for _, para := range splitByParagraphs(text) {
		if EstimateTokens(para) <= size {
			units = append(units, para)
			continue
		}
		for _, line := range splitLines(para) {
			if EstimateTokens(line) <= size {
				units = append(units, line)
				continue
			}
			units = append(units, splitSentences(line)...)
		}
	}
	return pack(units, size, overlap)
}

func pack(units []string, size, overlap int) []string {
	var (
		result  []string
		current strings.Builder
		tokens  int
	)
	for _, u := range units {
		ut := EstimateTokens(u)
		if tokens+ut > size && tokens > 0 {
			result = append(result, current.String())
			tail := overlapText(current.String(), overlap)
			current.Reset()
			tokens = 0
			if tail != "" {
				current.WriteString(tail)
				tokens = EstimateTokens(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(u)
		tokens += ut
	}
	if tokens > 0 {
		result = append(result, current.String())
	}
	return result
}

func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func splitLines(text string) []string {
	var result []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			result = append(result, l)
		}
	}
	return result
}

func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapText returns the last words of text worth about n tokens.
func overlapText(text string, n int) string {
	words := strings.Fields(text)
	target := int(float64(n) / 1.33)
	if target <= 0 || len(words) <= target {
		return ""
	}
	return strings.Join(words[len(words)-target:], " ")
}

package summarizer

import (
	"regexp"
	"strings"
	"unicode"

	"newssum/config"
)

// LeadModelVersion tags results produced by the extractive fallback.
const LeadModelVersion = "rule:lead3@sum_fb2"

var sentenceRe = regexp.MustCompile(`(?:[.!?])\s+`)

// SplitSentences splits on terminal punctuation followed by whitespace,
// keeping the punctuation with its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sents []string
	start := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation byte; keep it.
		sents = append(sents, strings.TrimSpace(text[start:loc[0]+1]))
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sents = append(sents, rest)
	}
	return sents
}

// Lead is the deterministic extractive fallback: title (when present)
// concatenated with the first sentences of the article, word-capped. It
// never fails; empty input yields an empty string.
func Lead(title, text string) string {
	sents := SplitSentences(text)
	if len(sents) > config.LeadSentences {
		sents = sents[:config.LeadSentences]
	}

	words := make([]string, 0, config.LeadMaxWords)
	if title = strings.TrimSpace(title); title != "" {
		for _, w := range strings.Fields(title + ".") {
			if len(words) < config.LeadMaxWords {
				words = append(words, w)
			}
		}
	}
	for _, s := range sents {
		for _, w := range strings.Fields(s) {
			if len(words) >= config.LeadMaxWords {
				break
			}
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// KeySentences returns the first n sentences of the summary for the
// response payload.
func KeySentences(summary string, n int) []string {
	sents := SplitSentences(summary)
	if len(sents) > n {
		sents = sents[:n]
	}
	if sents == nil {
		return []string{}
	}
	return sents
}

// PostProcess normalizes sentence-initial capitalization and, when the
// first sentence never mentions the proper-noun subject extractable from
// the title, prefixes that subject so the summary reads grounded.
func PostProcess(summary, title string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return summary
	}

	sents := SplitSentences(summary)
	for i, s := range sents {
		sents[i] = capitalizeFirst(s)
	}
	summary = strings.Join(sents, " ")

	subject := titleSubject(title)
	if subject != "" && len(sents) > 0 && !containsFold(sents[0], subject) {
		summary = subject + ": " + summary
	}
	return summary
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			break
		}
	}
	return string(runes)
}

// titleSubject picks the first capitalized multi-letter word of the title
// that is not a leading stopword.
func titleSubject(title string) string {
	for i, w := range strings.Fields(strings.TrimSpace(title)) {
		w = strings.Trim(w, `"'.,:;!?`)
		if len([]rune(w)) < 2 {
			continue
		}
		r := []rune(w)[0]
		if !unicode.IsUpper(r) {
			continue
		}
		if i == 0 && leadingStopwords[strings.ToLower(w)] {
			continue
		}
		return w
	}
	return ""
}

var leadingStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "why": true, "how": true, "what": true,
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

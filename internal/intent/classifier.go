package intent

import (
	"strings"
	"unicode"
)

// minMeaningfulTokens is the short-circuit threshold: utterances with no
// token of at least three letters go straight to unknown so one- or
// two-character fragments never false-match a stem.
const minMeaningfulTokens = 1

var turkishMarkers = "çğıöşüÇĞİÖŞÜ"

// Classifier maps a raw utterance to an intent label. It is a total
// function: any input, including empty or garbage text, yields a Result.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify scans the per-language pattern table in fixed priority order
// and returns the first matching intent. langHint, when non-empty,
// overrides detection.
func (c *Classifier) Classify(utterance string, langHint Language) Result {
	lang := langHint
	if lang == "" {
		lang = DetectLanguage(utterance)
	}

	lowered := lower(utterance, lang)
	tokens := tokenize(lowered)

	if countMeaningful(tokens) < minMeaningfulTokens {
		return Result{Intent: Unknown, Confidence: Low, Language: lang}
	}

	for _, set := range patternTable[lang] {
		if conf, ok := matchSet(lowered, tokens, set); ok {
			return Result{Intent: set.intent, Confidence: conf, Language: lang}
		}
	}

	return Result{Intent: Unknown, Confidence: Low, Language: lang}
}

func matchSet(lowered string, tokens []string, set patternSet) (Confidence, bool) {
	for _, keyword := range set.exact {
		if strings.Contains(keyword, " ") {
			if strings.Contains(lowered, keyword) {
				return High, true
			}
			continue
		}
		for _, token := range tokens {
			if token == keyword {
				return High, true
			}
			if strings.HasPrefix(token, keyword) {
				return Medium, true
			}
		}
	}

	for _, stem := range set.stems {
		if strings.Contains(lowered, stem) {
			return Low, true
		}
	}

	return "", false
}

// DetectLanguage falls back to Turkish when the text carries Turkish
// letters or any Turkish keyword; otherwise English.
func DetectLanguage(utterance string) Language {
	if strings.ContainsAny(utterance, turkishMarkers) {
		return LanguageTR
	}

	lowered := lower(utterance, LanguageTR)
	tokens := tokenize(lowered)
	for _, set := range patternTable[LanguageTR] {
		set.exact = withoutLoanwords(set.exact)
		set.stems = withoutLoanwords(set.stems)
		if _, ok := matchSet(lowered, tokens, set); ok {
			return LanguageTR
		}
	}

	return LanguageEN
}

func withoutLoanwords(words []string) []string {
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if _, shared := sharedLoanwords[word]; !shared {
			kept = append(kept, word)
		}
	}
	return kept
}

func lower(s string, lang Language) string {
	if lang == LanguageTR {
		return strings.ToLowerSpecial(unicode.TurkishCase, s)
	}
	return strings.ToLower(s)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func countMeaningful(tokens []string) int {
	n := 0
	for _, token := range tokens {
		if len([]rune(token)) >= 3 {
			n++
		}
	}
	return n
}

package guardrail

import "regexp"

// Identity-leak phrases per language. Declarative data, not code, so the
// matcher stays testable independently of the wording.
var identityLeakPatterns = map[string][]string{
	"tr": {
		"yapay zeka",
		"yapay zekayım",
		"dil modeli",
		"ben bir bot",
		"bir botum",
		"sanal asistan",
		"robot olarak",
		"bilgisayar programı",
	},
	"en": {
		"as an ai",
		"i am an ai",
		"i'm an ai",
		"language model",
		"i am a bot",
		"i'm a bot",
		"artificial intelligence",
		"virtual assistant",
		"computer program",
	},
}

// priceRe matches amounts with a currency marker on either side.
var priceRe = regexp.MustCompile(`(?i)(?:[$₺€]\s*\d+(?:[.,]\d+)?)|(?:\d+(?:[.,]\d+)?\s*(?:tl|₺|try|lira|usd|eur|euro|dolar|dollars?|\$|€))`)

// amountRe extracts the numeric part of a price match.
var amountRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

package guardrail

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smartflow/voice-core/internal/semantic"
)

type Category string

const (
	CategoryGrounding    Category = "grounding"
	CategoryIdentityLeak Category = "identity_leak"
	CategoryCompetitor   Category = "competitor"
	CategoryPricing      Category = "pricing"
)

type Violation struct {
	Category Category `json:"category"`
	Detail   string   `json:"detail"`
}

// ValidationResult is produced once per candidate response and never
// mutated. Approved is true only when no rule fired.
type ValidationResult struct {
	Approved   bool        `json:"approved"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validator checks a generated candidate response against the tenant's
// policy before it reaches the caller. Validate is a total function: it
// never fails, it only reports.
type Validator struct {
	defaultThreshold float64
}

func NewValidator(groundingThreshold float64) *Validator {
	if groundingThreshold <= 0 {
		groundingThreshold = 0.75
	}
	return &Validator{defaultThreshold: groundingThreshold}
}

// Validate evaluates every rule independently and collects all
// violations; rules are not short-circuited so operators see the full
// picture in one pass.
func (v *Validator) Validate(candidate string, grounding []semantic.SearchResult, policy Policy) ValidationResult {
	var violations []Violation

	violations = append(violations, v.checkGrounding(grounding, policy)...)
	violations = append(violations, checkIdentityLeak(candidate)...)
	violations = append(violations, checkCompetitors(candidate, policy)...)
	violations = append(violations, checkPricing(candidate, grounding, policy)...)

	return ValidationResult{
		Approved:   len(violations) == 0,
		Violations: violations,
	}
}

func (v *Validator) checkGrounding(grounding []semantic.SearchResult, policy Policy) []Violation {
	if policy.WaiveGrounding {
		return nil
	}

	threshold := policy.GroundingThreshold
	if threshold <= 0 {
		threshold = v.defaultThreshold
	}

	if len(grounding) == 0 {
		return []Violation{{
			Category: CategoryGrounding,
			Detail:   "no knowledge passages retrieved for this response",
		}}
	}

	best := grounding[0].Score
	for _, result := range grounding[1:] {
		if result.Score > best {
			best = result.Score
		}
	}

	if best < threshold {
		return []Violation{{
			Category: CategoryGrounding,
			Detail:   fmt.Sprintf("best grounding score %.2f below threshold %.2f", best, threshold),
		}}
	}

	return nil
}

func checkIdentityLeak(candidate string) []Violation {
	lowered := strings.ToLower(candidate)

	// A reply in either language may leak in the other, so both tables
	// are scanned; fixed order keeps the violation list stable.
	var violations []Violation
	for _, lang := range []string{"tr", "en"} {
		for _, pattern := range identityLeakPatterns[lang] {
			if strings.Contains(lowered, pattern) {
				violations = append(violations, Violation{
					Category: CategoryIdentityLeak,
					Detail:   fmt.Sprintf("response reveals synthetic identity: %q", pattern),
				})
			}
		}
	}
	return violations
}

func checkCompetitors(candidate string, policy Policy) []Violation {
	lowered := strings.ToLower(candidate)

	var violations []Violation
	for _, name := range policy.CompetitorNames {
		if name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) {
			violations = append(violations, Violation{
				Category: CategoryCompetitor,
				Detail:   fmt.Sprintf("response mentions competitor %q", name),
			})
		}
	}
	return violations
}

func checkPricing(candidate string, grounding []semantic.SearchResult, policy Policy) []Violation {
	matches := priceRe.FindAllString(candidate, -1)
	if len(matches) == 0 {
		return nil
	}

	if !policy.AllowPriceQuotes {
		return []Violation{{
			Category: CategoryPricing,
			Detail:   fmt.Sprintf("price quote %q not permitted for this tenant", matches[0]),
		}}
	}

	// Only currency-marked figures in the grounding count as known
	// prices; bare numerals there are opening hours, dates, phone digits.
	groundedAmounts := make(map[string]struct{})
	for _, result := range grounding {
		for _, price := range priceRe.FindAllString(result.Text, -1) {
			amount := amountRe.FindString(price)
			groundedAmounts[normalizeAmount(amount)] = struct{}{}
		}
	}

	var violations []Violation
	for _, match := range matches {
		amount := amountRe.FindString(match)
		if _, ok := groundedAmounts[normalizeAmount(amount)]; !ok {
			violations = append(violations, Violation{
				Category: CategoryPricing,
				Detail:   fmt.Sprintf("quoted figure %q not traceable to retrieved knowledge", match),
			})
		}
	}
	return violations
}

// normalizeAmount makes "1.250,00", "1250.00" and "1250" compare equal.
func normalizeAmount(raw string) string {
	cleaned := strings.ReplaceAll(raw, " ", "")

	// Treat the last separator as the decimal mark, anything before it as
	// grouping.
	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	sep := lastComma
	if lastDot > sep {
		sep = lastDot
	}
	if sep > 0 && len(cleaned)-sep-1 <= 2 {
		intPart := strings.Map(dropSeparators, cleaned[:sep])
		cleaned = intPart + "." + cleaned[sep+1:]
	} else {
		cleaned = strings.Map(dropSeparators, cleaned)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return cleaned
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func dropSeparators(r rune) rune {
	if r == '.' || r == ',' {
		return -1
	}
	return r
}

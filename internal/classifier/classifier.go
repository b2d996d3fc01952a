// Package classifier assigns a spending category and a confidence score to a
// free-text transaction description using whole-word keyword matching.
package classifier

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	baseConfidence     = 0.7
	matchBoostPerHit   = 0.1
	maxMatchBoost      = 0.3
	priorityBoostStep  = 0.02
	amountAdjustment   = 0.1
	lengthBoostPerWord = 0.01
	maxLengthBoost     = 0.1

	// FallbackConfidence is returned when no keyword matched and the
	// category was picked from the amount alone.
	FallbackConfidence = 0.3
)

// prefixes added by payment apps, stripped in this order.
var prefixes = []string{"upi-", "paytm-", "gpay-", "phonepe-", "payment to", "paid to"}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\-]`)
	whitespace = regexp.MustCompile(`\s+`)
)

var (
	fallbackSnacks   = decimal.NewFromInt(50)
	fallbackFood     = decimal.NewFromInt(200)
	fallbackShopping = decimal.NewFromInt(500)
	half             = decimal.NewFromFloat(0.5)
	two              = decimal.NewFromInt(2)
)

type matcher struct {
	def     *CategoryDef
	pattern *regexp.Regexp
}

var matchers []matcher

func init() {
	matchers = make([]matcher, 0, len(taxonomy))
	for i := range taxonomy {
		def := &taxonomy[i]
		quoted := make([]string, len(def.Keywords))
		for j, kw := range def.Keywords {
			quoted[j] = regexp.QuoteMeta(kw)
		}
		matchers = append(matchers, matcher{
			def:     def,
			pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}
}

// Result is the outcome of classifying one description.
type Result struct {
	Category   domain.Category `json:"category"`
	Confidence float64         `json:"confidence"`
}

// Classify maps a description and amount to a category with a confidence in [0, 1].
// An empty description yields others with zero confidence. When no keyword
// matches, including a description of only whitespace, the category is
// derived from the amount with FallbackConfidence.
func Classify(description string, amount decimal.Decimal) Result {
	if description == "" {
		return Result{Category: domain.CategoryOthers, Confidence: 0}
	}

	clean := Normalize(description)
	words := len(strings.Fields(clean))

	best := Result{}
	matched := false
	for _, m := range matchers {
		hits := countMatches(m.pattern, clean)
		if hits == 0 {
			continue
		}
		conf := confidence(m.def, hits, words, amount)
		if !matched || conf > best.Confidence {
			best = Result{Category: m.def.Category, Confidence: conf}
			matched = true
		}
	}
	if matched {
		return best
	}

	return Result{Category: categoryByAmount(amount), Confidence: FallbackConfidence}
}

// Normalize lowercases the description, strips payment-app prefixes and
// replaces punctuation with spaces.
func Normalize(description string) string {
	clean := strings.ToLower(strings.TrimSpace(description))
	for _, p := range prefixes {
		if strings.HasPrefix(clean, p) {
			clean = strings.TrimSpace(clean[len(p):])
		}
	}
	clean = nonWord.ReplaceAllString(clean, " ")
	clean = whitespace.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// countMatches counts non-overlapping whole-word hits. The regexp \b only
// knows ASCII word characters, so hits glued to a non-ASCII letter are dropped.
func countMatches(re *regexp.Regexp, text string) int {
	n := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
			if isWordRune(r) {
				continue
			}
		}
		if loc[1] < len(text) {
			r, _ := utf8.DecodeRuneInString(text[loc[1]:])
			if isWordRune(r) {
				continue
			}
		}
		n++
	}
	return n
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func confidence(def *CategoryDef, hits, words int, amount decimal.Decimal) float64 {
	matchBoost := float64(hits) * matchBoostPerHit
	if matchBoost > maxMatchBoost {
		matchBoost = maxMatchBoost
	}
	priorityBoost := float64(10-def.Priority) * priorityBoostStep
	lengthBoost := float64(words) * lengthBoostPerWord
	if lengthBoost > maxLengthBoost {
		lengthBoost = maxLengthBoost
	}

	conf := baseConfidence + matchBoost + priorityBoost + amountAdjust(def, amount) + lengthBoost
	if conf > 1.0 {
		return 1.0
	}
	if conf < 0 {
		return 0
	}
	return conf
}

func amountAdjust(def *CategoryDef, amount decimal.Decimal) float64 {
	if !amount.IsPositive() || def.Typical == nil {
		return 0
	}
	r := def.Typical
	if amount.GreaterThanOrEqual(r.Min) && amount.LessThanOrEqual(r.Max) {
		return amountAdjustment
	}
	if amount.LessThan(r.Min.Mul(half)) || amount.GreaterThan(r.Max.Mul(two)) {
		return -amountAdjustment
	}
	return 0
}

func categoryByAmount(amount decimal.Decimal) domain.Category {
	switch {
	case amount.LessThanOrEqual(fallbackSnacks):
		return domain.CategorySnacks
	case amount.LessThanOrEqual(fallbackFood):
		return domain.CategoryFood
	case amount.LessThanOrEqual(fallbackShopping):
		return domain.CategoryShopping
	default:
		return domain.CategoryOthers
	}
}

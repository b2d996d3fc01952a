// Package quotes picks motivational quotes deterministically from the
// calendar date. There is no shared random source: the same date always
// yields the same quote, and Random takes a source owned by the caller.
package quotes

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Quote is one entry of the collection. Tamil and Translation are optional.
type Quote struct {
	Text        string `json:"text"`
	Tamil       string `json:"tamil,omitempty"`
	Author      string `json:"author"`
	Translation string `json:"translation,omitempty"`
	Category    string `json:"category"`
}

// DatedQuote is a quote assigned to a calendar day.
type DatedQuote struct {
	Quote
	Date      civil.Date `json:"date"`
	DayOfYear int        `json:"day_of_year"`
	DayName   string     `json:"day_name"`
}

// DaySeed encodes a date as year*10000 + month*100 + day.
func DaySeed(d civil.Date) int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

func dated(q Quote, d civil.Date) DatedQuote {
	t := d.In(time.UTC)
	return DatedQuote{Quote: q, Date: d, DayOfYear: t.YearDay(), DayName: t.Weekday().String()}
}

// Daily returns the quote of the day. A known situation puts its quotes in
// front of the general pool; unknown situations are ignored.
func Daily(d civil.Date, situation string) DatedQuote {
	candidates := pool
	if extra, ok := situational[situation]; ok {
		candidates = concat(extra, pool)
	}
	day := d.In(time.UTC).YearDay()
	return dated(candidates[day%len(candidates)], d)
}

// ByCategory returns the day's quote within category, or the quote of the
// day when no quote has that category.
func ByCategory(category string, d civil.Date) DatedQuote {
	var matching []Quote
	for _, q := range pool {
		if q.Category == category {
			matching = append(matching, q)
		}
	}
	if len(matching) == 0 {
		return Daily(d, "")
	}
	return dated(matching[DaySeed(d)%len(matching)], d)
}

// Weekly returns one quote for each of the seven days starting at start.
// Each day tries successive indices from its seed and skips quotes already
// used earlier in the week, giving up after one full pass.
func Weekly(start civil.Date) []DatedQuote {
	used := make(map[int]bool, 7)
	week := make([]DatedQuote, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		seed := DaySeed(d)
		for attempt := 0; attempt < len(pool); attempt++ {
			idx := (seed + attempt) % len(pool)
			if used[idx] {
				continue
			}
			used[idx] = true
			week = append(week, dated(pool[idx], d))
			break
		}
	}
	return week
}

// ByAuthor returns the quotes whose author contains author, ignoring case.
func ByAuthor(author string) []Quote {
	needle := strings.ToLower(author)
	out := []Quote{}
	for _, q := range pool {
		if strings.Contains(strings.ToLower(q.Author), needle) {
			out = append(out, q)
		}
	}
	return out
}

// Search returns the quotes mentioning keyword in any text field, ignoring case.
func Search(keyword string) []Quote {
	needle := strings.ToLower(keyword)
	out := []Quote{}
	for _, q := range pool {
		fields := []string{q.Text, q.Tamil, q.Translation, q.Category, q.Author}
		for _, f := range fields {
			if f != "" && strings.Contains(strings.ToLower(f), needle) {
				out = append(out, q)
				break
			}
		}
	}
	return out
}

// Categories returns the distinct categories of the general pool, sorted.
func Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, q := range pool {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Collection names one source group of the general pool.
type Collection string

const (
	CollectionThirukkural Collection = "thirukkural"
	CollectionBuffett     Collection = "buffett"
	CollectionWisdom      Collection = "wisdom"
)

// ErrUnknownCollection is returned for a collection name that does not exist.
var ErrUnknownCollection = errors.New("unknown quote collection")

var collections = map[Collection][]Quote{
	CollectionThirukkural: thirukkural,
	CollectionBuffett:     buffett,
	CollectionWisdom:      wisdom,
}

// Collections lists the collection names in pool order.
func Collections() []Collection {
	return []Collection{CollectionThirukkural, CollectionBuffett, CollectionWisdom}
}

// FromCollection returns the day's quote from one collection, indexed by
// DaySeed like ByCategory.
func FromCollection(c Collection, d civil.Date) (DatedQuote, error) {
	list, ok := collections[c]
	if !ok {
		return DatedQuote{}, fmt.Errorf("FromCollection: %q: %w", c, ErrUnknownCollection)
	}
	return dated(list[DaySeed(d)%len(list)], d), nil
}

// Random returns a quote from the general pool chosen by rng.
func Random(rng *rand.Rand) Quote {
	return pool[rng.Intn(len(pool))]
}

// All returns a copy of the general pool.
func All() []Quote {
	return append([]Quote(nil), pool...)
}

package quotes

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func TestDaySeed(t *testing.T) {
	if got := DaySeed(date(2025, 6, 18)); got != 20250618 {
		t.Errorf("DaySeed() = %d, want 20250618", got)
	}
}

func TestDaily(t *testing.T) {
	tests := []struct {
		name      string
		date      civil.Date
		situation string
		wantText  string
	}{
		{"day one", date(2025, 1, 1), "", "The best investment is in knowledge and wisdom."},
		{"wraps around the pool", date(2025, 1, 16), "", "Wealth unused is not wealth at all."},
		{"situation leads the pool", date(2025, 1, 17), SituationLowBalance, "Every financial comeback starts with a single saved rupee."},
		{"unknown situation ignored", date(2025, 1, 1), "bankrupt", "The best investment is in knowledge and wisdom."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Daily(tt.date, tt.situation)
			if got.Text != tt.wantText {
				t.Errorf("Daily() = %q, want %q", got.Text, tt.wantText)
			}
			if got.Date != tt.date || got.DayOfYear != tt.date.DaysSince(date(tt.date.Year, 1, 1))+1 {
				t.Errorf("Daily() date = %s day %d", got.Date, got.DayOfYear)
			}
		})
	}
}

func TestDaily_StableWithinDay(t *testing.T) {
	d := date(2025, 6, 18)
	first := Daily(d, "")
	for i := 0; i < 10; i++ {
		if got := Daily(d, ""); got != first {
			t.Fatalf("Daily() changed within a day: %+v vs %+v", got, first)
		}
	}
}

func TestByCategory(t *testing.T) {
	d := date(2025, 6, 18) // even seed
	got := ByCategory("investment", d)
	if got.Category != "investment" || got.Author != "Warren Buffett" {
		t.Errorf("ByCategory() = %+v", got)
	}
	if got.Text != "Someone's sitting in the shade today because someone planted a tree a long time ago." {
		t.Errorf("ByCategory() text = %q", got.Text)
	}

	if got := ByCategory("crypto", d); got != Daily(d, "") {
		t.Errorf("ByCategory(unknown) = %+v, want quote of the day", got)
	}
}

func TestWeekly(t *testing.T) {
	start := date(2025, 6, 16)
	week := Weekly(start)
	if len(week) != 7 {
		t.Fatalf("len = %d, want 7", len(week))
	}
	seen := map[string]bool{}
	for i, q := range week {
		if q.Date != start.AddDays(i) {
			t.Errorf("week[%d].Date = %s, want %s", i, q.Date, start.AddDays(i))
		}
		if seen[q.Text] {
			t.Errorf("week[%d] repeats %q", i, q.Text)
		}
		seen[q.Text] = true
	}
	if week[0].DayName != "Monday" {
		t.Errorf("week[0].DayName = %s, want Monday", week[0].DayName)
	}
}

func TestByAuthorAndSearch(t *testing.T) {
	if got := ByAuthor("BUFFETT"); len(got) != 5 {
		t.Errorf("ByAuthor(buffett) = %d quotes, want 5", len(got))
	}
	if got := ByAuthor("finla"); len(got) != 6 {
		t.Errorf("ByAuthor(finla) = %d quotes, want 6", len(got))
	}
	if got := Search("Money"); len(got) != 2 {
		t.Errorf("Search(money) = %d quotes, want 2", len(got))
	}
	if got := Search("mental peace"); len(got) != 1 || got[0].Category != "debt" {
		t.Errorf("Search(translation) = %+v, want the debt quote", got)
	}
	if got := Search("zzz"); got == nil || len(got) != 0 {
		t.Errorf("Search(miss) = %v, want empty slice", got)
	}
}

func TestCategories(t *testing.T) {
	got := Categories()
	if len(got) != 14 {
		t.Fatalf("Categories() = %v, want 14", got)
	}
	if got[0] != "budgeting" || got[len(got)-1] != "wisdom" {
		t.Errorf("Categories() not sorted: %v", got)
	}
}

func TestFromCollection(t *testing.T) {
	tests := []struct {
		collection Collection
		author     string
	}{
		{CollectionThirukkural, "Thirukkural"},
		{CollectionBuffett, "Warren Buffett"},
		{CollectionWisdom, "Finla Wisdom"},
	}

	d := date(2025, 6, 18)
	for _, tt := range tests {
		t.Run(string(tt.collection), func(t *testing.T) {
			got, err := FromCollection(tt.collection, d)
			if err != nil {
				t.Fatalf("FromCollection() error = %v", err)
			}
			if !strings.Contains(got.Author, tt.author) || got.Date != d {
				t.Errorf("FromCollection() = %+v, want author %s", got, tt.author)
			}
			again, _ := FromCollection(tt.collection, d)
			if again.Text != got.Text {
				t.Error("same day gave a different quote")
			}
		})
	}

	if _, err := FromCollection("ai", d); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("FromCollection(ai) error = %v, want ErrUnknownCollection", err)
	}
}

func TestCollectionsCoverPool(t *testing.T) {
	n := 0
	for _, c := range Collections() {
		n += len(collections[c])
	}
	if n != len(All()) {
		t.Errorf("collections hold %d quotes, pool has %d", n, len(All()))
	}
}

func TestRandom(t *testing.T) {
	a := Random(rand.New(rand.NewSource(7)))
	b := Random(rand.New(rand.NewSource(7)))
	if a != b {
		t.Errorf("same seed gave %q and %q", a.Text, b.Text)
	}

	inPool := false
	for _, q := range All() {
		if q == a {
			inPool = true
		}
	}
	if !inPool {
		t.Errorf("Random() = %+v, not in the pool", a)
	}
}

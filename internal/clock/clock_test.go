package clock

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestFixedClock(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	c := NewFixed(ts)

	if !c.Now().Equal(ts) {
		t.Errorf("Now() = %v, want %v", c.Now(), ts)
	}
	if got, want := Today(c), (civil.Date{Year: 2025, Month: 3, Day: 9}); got != want {
		t.Errorf("Today() = %v, want %v", got, want)
	}
}

func TestFuncClock(t *testing.T) {
	calls := 0
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := FuncClock(func() time.Time {
		calls++
		return base.AddDate(0, 0, calls)
	})

	if got := Today(c); got.Day != 2 {
		t.Errorf("first Today() day = %d, want 2", got.Day)
	}
	if got := Today(c); got.Day != 3 {
		t.Errorf("second Today() day = %d, want 3", got.Day)
	}
}

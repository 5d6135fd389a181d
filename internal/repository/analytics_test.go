package repository

import (
	"testing"
	"time"
)

func TestWindowBounds(t *testing.T) {
	tests := []struct {
		name      string
		at        string
		wantStart string
		wantEnd   string
	}{
		{
			"mid hour",
			"2025-03-14T15:42:07Z",
			"2025-03-14T15:00:00Z",
			"2025-03-14T15:59:59Z",
		},
		{
			"exact hour boundary",
			"2025-03-14T15:00:00Z",
			"2025-03-14T15:00:00Z",
			"2025-03-14T15:59:59Z",
		},
		{
			"last second of hour",
			"2025-03-14T15:59:59Z",
			"2025-03-14T15:00:00Z",
			"2025-03-14T15:59:59Z",
		},
		{
			"non-utc input normalized",
			"2025-03-14T20:30:00+05:30",
			"2025-03-14T15:00:00Z",
			"2025-03-14T15:59:59Z",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := time.Parse(time.RFC3339, tt.at)
			if err != nil {
				t.Fatal(err)
			}
			start, end := windowBounds(at)
			if got := start.Format(time.RFC3339); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := end.Format(time.RFC3339); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
			if end.Sub(start) != time.Hour-time.Second {
				t.Errorf("window span = %s", end.Sub(start))
			}
		})
	}
}

func TestWindowBoundsDistinctAcrossDays(t *testing.T) {
	a, _ := time.Parse(time.RFC3339, "2025-03-14T23:59:59Z")
	b, _ := time.Parse(time.RFC3339, "2025-03-15T00:00:01Z")
	startA, _ := windowBounds(a)
	startB, _ := windowBounds(b)
	if startA.Equal(startB) {
		t.Error("clicks on different days share a window")
	}
	if startA.Day() == startB.Day() {
		t.Error("windows should fall on different calendar days")
	}
}

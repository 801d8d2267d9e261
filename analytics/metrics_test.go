package analytics

import (
	"testing"
	"time"
)

func TestDistributionCoversFullCatalog(t *testing.T) {
	dist := distribution([]string{"Happy", "Happy", "Sad"})

	if len(dist) != 5 {
		t.Fatalf("distribution has %d moods, want full catalog of 5", len(dist))
	}
	if got := dist["Happy"]; got.Count != 2 || got.Percentage != 67 {
		t.Errorf("Happy = %+v, want count 2 percentage 67", got)
	}
	if got := dist["Sad"]; got.Count != 1 || got.Percentage != 33 {
		t.Errorf("Sad = %+v, want count 1 percentage 33", got)
	}
	if got := dist["Angry"]; got.Count != 0 || got.Percentage != 0 {
		t.Errorf("Angry = %+v, want zero entry", got)
	}
}

func TestDistributionEmptyHistory(t *testing.T) {
	dist := distribution(nil)
	for label, entry := range dist {
		if entry.Count != 0 || entry.Percentage != 0 {
			t.Errorf("%s = %+v, want zeros for empty history", label, entry)
		}
	}
}

func TestOverallScore(t *testing.T) {
	cases := []struct {
		name   string
		labels []string
		want   int
	}{
		{"empty", nil, 0},
		{"single happy", []string{"Happy"}, 90},
		{"mixed", []string{"Happy", "Sad"}, 65},
		{"unknown mood counts neutral", []string{"Mysterious"}, 50},
		{"rounded", []string{"Happy", "Angry", "Angry"}, 50},
	}

	for _, tc := range cases {
		if got := overallScore(tc.labels); got != tc.want {
			t.Errorf("%s: overallScore = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestMoodsByDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	entries := []moodEntry{
		{Label: "Happy", CreatedAt: now.Add(-2 * time.Hour)},
		{Label: "Sad", CreatedAt: now.AddDate(0, 0, -1)},
		{Label: "Angry", CreatedAt: now.AddDate(0, 0, -8)},
	}

	buckets := moodsByDay(entries, now)
	if len(buckets) != 7 {
		t.Fatalf("got %d buckets, want 7", len(buckets))
	}
	if buckets[0].Date != "2025-06-04" || buckets[6].Date != "2025-06-10" {
		t.Fatalf("bucket range [%s, %s]", buckets[0].Date, buckets[6].Date)
	}

	last := buckets[6]
	if last.Count != 1 || last.Moods[0] != "Happy" {
		t.Errorf("today bucket = %+v", last)
	}
	if buckets[5].Count != 1 || buckets[5].Moods[0] != "Sad" {
		t.Errorf("yesterday bucket = %+v", buckets[5])
	}

	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != 2 {
		t.Errorf("entries outside the window leaked in, total = %d", total)
	}
}

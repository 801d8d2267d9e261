package analytics

import (
	"math"
	"time"

	"endxiety_back/moods"
)

// moodScores weights each mood for the overall wellbeing score. Moods
// outside the table count as a neutral 50.
var moodScores = map[string]int{
	"Happy":     90,
	"Calm":      70,
	"Sad":       40,
	"Angry":     30,
	"Irritated": 35,
	"Exhausted": 50,
}

const neutralMoodScore = 50

// DistributionEntry captures how often one mood was logged.
type DistributionEntry struct {
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// DayBucket groups the moods logged on one calendar day.
type DayBucket struct {
	Date  string   `json:"date"`
	Count int      `json:"count"`
	Moods []string `json:"moods"`
}

// distribution tallies mood labels against the full catalog so every
// mood appears in the result even with zero entries.
func distribution(labels []string) map[string]DistributionEntry {
	result := make(map[string]DistributionEntry)
	total := len(labels)

	for _, moodType := range moods.Catalog() {
		count := 0
		for _, label := range labels {
			if label == moodType.Label {
				count++
			}
		}
		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(count) / float64(total) * 100))
		}
		result[moodType.Label] = DistributionEntry{Count: count, Percentage: percentage}
	}

	return result
}

// overallScore averages the per-mood weights across all entries.
func overallScore(labels []string) int {
	if len(labels) == 0 {
		return 0
	}

	total := 0
	for _, label := range labels {
		score, ok := moodScores[label]
		if !ok {
			score = neutralMoodScore
		}
		total += score
	}

	return int(math.Round(float64(total) / float64(len(labels))))
}

type moodEntry struct {
	Label     string
	CreatedAt time.Time
}

// moodsByDay buckets entries into the seven days ending at now.
func moodsByDay(entries []moodEntry, now time.Time) []DayBucket {
	buckets := make([]DayBucket, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		bucket := DayBucket{Date: day, Moods: []string{}}
		for _, entry := range entries {
			if entry.CreatedAt.Format("2006-01-02") == day {
				bucket.Count++
				bucket.Moods = append(bucket.Moods, entry.Label)
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

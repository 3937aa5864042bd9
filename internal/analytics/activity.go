package analytics

import (
	"time"

	"lexiscope/internal/model"
)

// HourlyActivity counts posts by UTC hour of day.
func HourlyActivity(posts []model.Post) [24]int {
	var buckets [24]int
	for _, p := range posts {
		buckets[p.CreatedAt.UTC().Hour()]++
	}
	return buckets
}

// WeekdayActivity counts posts by UTC weekday, Sunday first.
func WeekdayActivity(posts []model.Post) [7]int {
	var buckets [7]int
	for _, p := range posts {
		buckets[p.CreatedAt.UTC().Weekday()]++
	}
	return buckets
}

// PeakHour returns the busiest hour and its post count. Earlier hours
// win ties.
func PeakHour(buckets [24]int) (hour, count int) {
	for h, n := range buckets {
		if n > count {
			hour, count = h, n
		}
	}
	return hour, count
}

// WeekdayNames returns the labels matching WeekdayActivity's buckets.
func WeekdayNames() [7]string {
	var names [7]string
	for i := range names {
		names[i] = time.Weekday(i).String()[:3]
	}
	return names
}

// This file implements the Strategy Pattern for recurring transaction
// scheduling. Each frequency has its own scheduler that knows how to
// advance a schedule's next occurrence.

package services

import (
	"fmt"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
)

// OccurrenceScheduler is the strategy interface for advancing a recurring
// schedule past a given occurrence.
type OccurrenceScheduler interface {
	// Next returns the occurrence that follows the given one.
	Next(after time.Time) time.Time
}

type DailyScheduler struct{}

func (DailyScheduler) Next(after time.Time) time.Time {
	return after.AddDate(0, 0, 1)
}

type WeeklyScheduler struct{}

func (WeeklyScheduler) Next(after time.Time) time.Time {
	return after.AddDate(0, 0, 7)
}

// MonthlyScheduler advances by one calendar month, clamping to the last day
// when the target day does not exist (e.g. Jan 31 -> Feb 28).
type MonthlyScheduler struct{}

func (MonthlyScheduler) Next(after time.Time) time.Time {
	return addMonthsClamped(after, 1)
}

// YearlyScheduler advances by one year, clamping Feb 29 to Feb 28 in
// non-leap years.
type YearlyScheduler struct{}

func (YearlyScheduler) Next(after time.Time) time.Time {
	return addMonthsClamped(after, 12)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	h, m, s := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, h, m, s, t.Nanosecond(), t.Location())
}

// scheduleStrategies maps frequencies to their schedulers. The registry
// enables O(1) lookup and easy extension for new frequency types.
var scheduleStrategies = map[core.Frequency]OccurrenceScheduler{
	core.Daily:   DailyScheduler{},
	core.Weekly:  WeeklyScheduler{},
	core.Monthly: MonthlyScheduler{},
	core.Yearly:  YearlyScheduler{},
}

// GetOccurrenceScheduler returns the scheduler for a frequency.
func GetOccurrenceScheduler(frequency core.Frequency) (OccurrenceScheduler, error) {
	scheduler, ok := scheduleStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return scheduler, nil
}

// RegisterOccurrenceScheduler allows registering custom schedulers for new
// frequency types.
func RegisterOccurrenceScheduler(frequency core.Frequency, scheduler OccurrenceScheduler) {
	scheduleStrategies[frequency] = scheduler
}

package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	ScheduleKindCron     = "cron"
	ScheduleKindInterval = "interval"
)

// Schedule decides when a periodic job runs next: either a fixed interval or
// a five-field cron expression evaluated in a timezone.
type Schedule struct {
	Kind     string
	CronExpr string
	Interval time.Duration
	Timezone string

	location     *time.Location
	cronSchedule cron.Schedule
}

// ParseSchedule builds a Schedule. A non-empty cronExpr wins over interval.
func ParseSchedule(cronExpr string, interval time.Duration, timezone string) (Schedule, error) {
	trimmedTimezone := firstNonEmpty(strings.TrimSpace(timezone), "UTC")
	location, err := time.LoadLocation(trimmedTimezone)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid timezone: %w", err)
	}

	sched := Schedule{Timezone: trimmedTimezone, location: location}

	if trimmedExpr := strings.TrimSpace(cronExpr); trimmedExpr != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		parsed, parseErr := parser.Parse(trimmedExpr)
		if parseErr != nil {
			return Schedule{}, fmt.Errorf("invalid cron expression: %w", parseErr)
		}
		sched.Kind = ScheduleKindCron
		sched.CronExpr = trimmedExpr
		sched.cronSchedule = parsed
		return sched, nil
	}

	if interval <= 0 {
		return Schedule{}, fmt.Errorf("interval must be greater than zero")
	}
	sched.Kind = ScheduleKindInterval
	sched.Interval = interval
	return sched, nil
}

// Next returns the first run strictly after now.
func (s Schedule) Next(now time.Time) time.Time {
	now = now.UTC()
	switch s.Kind {
	case ScheduleKindCron:
		location := s.location
		if location == nil {
			location = time.UTC
		}
		return s.cronSchedule.Next(now.In(location)).UTC()
	default:
		return now.Add(s.Interval)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

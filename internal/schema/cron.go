package schema

import "time"

// ScheduleSummary is a read-only view of a configured analysis schedule.
type ScheduleSummary struct {
	Name      string
	Expr      string
	Channel   string
	ChatID    string
	Next      time.Time
	LastRun   time.Time // zero until the first run
	LastError string
}

// Scheduler lists configured schedules. Implemented by cron.JobManager.
type Scheduler interface {
	List() []ScheduleSummary
}

package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Cron runs recurring jobs (daily maintenance, stats heartbeats). One-shot
// reminders do not go through here; they get their own timers in Scheduler.
type Cron struct {
	c *cron.Cron
}

// NewCron creates and starts a cron runner.
func NewCron() *Cron {
	c := cron.New()
	c.Start()
	return &Cron{c: c}
}

// AddDaily schedules job to run every day at hour:minute.
func (c *Cron) AddDaily(hour, minute int, job func()) (cron.EntryID, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid daily schedule %02d:%02d", hour, minute)
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	id, err := c.c.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("failed to add daily job: %w", err)
	}
	return id, nil
}

// Remove unregisters a job.
func (c *Cron) Remove(id cron.EntryID) {
	c.c.Remove(id)
}

// Stop halts the runner and waits for in-flight jobs to finish.
func (c *Cron) Stop() {
	ctx := c.c.Stop()
	<-ctx.Done()
}

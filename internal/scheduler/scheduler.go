package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rental-auction/internal/presence"
	"rental-auction/utils"
)

// AuctionLifecycle is the slice of the auction service the scheduler
// drives.
type AuctionLifecycle interface {
	ActivateDueAuctions() int
	CompleteExpiredAuctions() int
	RebroadcastActive()
	IssueOverdueFines() int
	BlockDelinquentTenants() int
}

// Intervals configures how often each sweep runs.
type Intervals struct {
	Lifecycle  time.Duration
	Fines      time.Duration
	Escalation time.Duration
}

// DefaultIntervals matches production cadence: auctions move within half
// a minute of their boundary, fines land within five minutes of the
// deadline, blocks within an hour of escalation.
func DefaultIntervals() Intervals {
	return Intervals{
		Lifecycle:  30 * time.Second,
		Fines:      5 * time.Minute,
		Escalation: time.Hour,
	}
}

// Scheduler runs the periodic auction sweeps.
type Scheduler struct {
	cron      *cron.Cron
	lifecycle AuctionLifecycle
	presence  presence.Store
	intervals Intervals
}

func New(lifecycle AuctionLifecycle, presenceStore presence.Store, intervals Intervals) *Scheduler {
	if intervals.Lifecycle <= 0 {
		intervals.Lifecycle = DefaultIntervals().Lifecycle
	}
	if intervals.Fines <= 0 {
		intervals.Fines = DefaultIntervals().Fines
	}
	if intervals.Escalation <= 0 {
		intervals.Escalation = DefaultIntervals().Escalation
	}
	return &Scheduler{
		cron:      cron.New(),
		lifecycle: lifecycle,
		presence:  presenceStore,
		intervals: intervals,
	}
}

// Start registers the sweep jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(everySpec(s.intervals.Lifecycle), s.runLifecycle); err != nil {
		return fmt.Errorf("scheduler: register lifecycle sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(everySpec(s.intervals.Fines), s.runFines); err != nil {
		return fmt.Errorf("scheduler: register fine sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(everySpec(s.intervals.Escalation), s.runEscalation); err != nil {
		return fmt.Errorf("scheduler: register escalation sweep: %w", err)
	}

	s.cron.Start()
	utils.Info("scheduler started", map[string]any{
		"lifecycle_interval":  s.intervals.Lifecycle.String(),
		"fine_interval":       s.intervals.Fines.String(),
		"escalation_interval": s.intervals.Escalation.String(),
	})
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.Info("scheduler stopped", nil)
}

func (s *Scheduler) runLifecycle() {
	activated := s.lifecycle.ActivateDueAuctions()
	completed := s.lifecycle.CompleteExpiredAuctions()
	s.lifecycle.RebroadcastActive()
	if activated > 0 || completed > 0 {
		utils.Info("lifecycle sweep finished", map[string]any{
			"activated": activated,
			"completed": completed,
		})
	}
}

func (s *Scheduler) runFines() {
	if issued := s.lifecycle.IssueOverdueFines(); issued > 0 {
		utils.Info("fine sweep finished", map[string]any{"fines_issued": issued})
	}
}

func (s *Scheduler) runEscalation() {
	if blocked := s.lifecycle.BlockDelinquentTenants(); blocked > 0 {
		utils.Info("escalation sweep finished", map[string]any{"tenants_blocked": blocked})
	}
	if err := s.presence.Purge(); err != nil {
		utils.Error("presence purge failed", map[string]any{"error": err.Error()})
	}
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

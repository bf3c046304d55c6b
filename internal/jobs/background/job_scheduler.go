package background

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	OverdueSweepJob     = "invoice-overdue-sweep"
	overdueSweepTimeout = 2 * time.Minute
)

// OverdueSweeper is satisfied by services.InvoiceService.
type OverdueSweeper interface {
	MarkOverdueInvoices(ctx context.Context) (int64, error)
}

// JobScheduler manages background jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweeper   OverdueSweeper
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the overdue sweep registered at
// the given interval.
func NewJobScheduler(sweeper OverdueSweeper, sweepInterval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweeper:   sweeper,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.registerJobs(sweepInterval); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler and waits for running jobs
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs(sweepInterval time.Duration) error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(js.SweepOverdue),
		gocron.WithName(OverdueSweepJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", OverdueSweepJob, err)
	}

	js.mu.Lock()
	js.jobs[OverdueSweepJob] = job
	js.mu.Unlock()

	log.Printf("Registered %d background jobs", len(js.jobs))
	return nil
}

// SweepOverdue marks past-due invoices as overdue.
func (js *JobScheduler) SweepOverdue() error {
	ctx, cancel := context.WithTimeout(context.Background(), overdueSweepTimeout)
	defer cancel()

	n, err := js.sweeper.MarkOverdueInvoices(ctx)
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
		return err
	}
	if n > 0 {
		log.Printf("Overdue sweep marked %d invoices as overdue", n)
	}
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}
	sort.Strings(jobs)

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}

package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/labor-market-dashboard/internal/labor"
)

// Updater runs one incremental refresh of the persisted dataset.
type Updater interface {
	Update(ctx context.Context) (labor.UpdateResult, error)
}

// Publisher receives the dataset after every successful refresh.
type Publisher interface {
	Save(ctx context.Context, ds labor.Dataset) error
}

// Scheduler periodically refreshes the dataset and publishes it to the dashboard.
type Scheduler struct {
	scheduler *gocron.Scheduler
	updater   Updater
	publish   Publisher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(interval time.Duration, updater Updater, publish Publisher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		updater:   updater,
		publish:   publish,
		interval:  interval,
		timeout:   5 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval after Start; the server loads the stored
// dataset itself on startup.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh interval is not positive; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.Run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: refreshing dataset every %s", s.interval)
	return nil
}

// Run performs one refresh. Failures are logged; the next run tries again.
func (s *Scheduler) Run() {
	log.Println("scheduler: running dataset refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.updater.Update(ctx)
	switch {
	case errors.Is(err, labor.ErrMissingBaseline):
		log.Printf("scheduler: %v", err)
		return
	case err != nil:
		log.Printf("scheduler: refresh failed: %v", err)
		return
	}

	// The file may have been rewritten by another process (labordata bootstrap
	// or update), so the dashboard copy is replaced even when nothing was added.
	if err := s.publish.Save(ctx, res.Dataset); err != nil {
		log.Printf("scheduler: publish failed for run %s: %v", res.RunID, err)
		return
	}
	if res.Added == 0 {
		log.Printf("scheduler: run %s found no new data; republished %d rows", res.RunID, res.Total)
		return
	}
	log.Printf("scheduler: run %s added %d rows (%d total)", res.RunID, res.Added, res.Total)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

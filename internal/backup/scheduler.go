package backup

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler writes a bundle into dir once a day.
type Scheduler struct {
	src   Source
	dir   string
	name  func() string
	now   func() time.Time
	sched *gocron.Scheduler
}

// NewScheduler plans a daily backup at the given "HH:MM". name returns the bistro
// name at run time so renames are picked up.
func NewScheduler(src Source, dir, at string, loc *time.Location, name func() string) (*Scheduler, error) {
	s := &Scheduler{
		src:   src,
		dir:   dir,
		name:  name,
		now:   time.Now,
		sched: gocron.NewScheduler(loc),
	}
	if _, err := s.sched.Every(1).Day().At(at).Do(s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() { s.sched.StartAsync() }

func (s *Scheduler) Stop() { s.sched.Stop() }

// RunOnce writes a bundle right now.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	return WriteFile(ctx, s.src, s.dir, s.name(), s.now())
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path, err := s.RunOnce(ctx)
	if err != nil {
		log.Printf("[ERROR] scheduled backup failed: %v", err)
		return
	}
	log.Printf("Backup written: %s", path)
}

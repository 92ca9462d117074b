package scheduler

import (
	"time"

	"github.com/jinzhu/now"

	"queue-booking/logger"
	"queue-booking/services/queue"
)

const sweepInterval = time.Minute

// Scheduler runs the periodic queue maintenance: the expiry sweep every
// minute and the daily reset just after midnight in the reference zone. The
// same operations remain reachable on demand through the HTTP routes.
type Scheduler struct {
	engine   *queue.Engine
	stopChan chan struct{}
}

// NewScheduler creates a new background scheduler
func NewScheduler(engine *queue.Engine) *Scheduler {
	return &Scheduler{
		engine:   engine,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background tasks.
func (s *Scheduler) Start() {
	logger.Info("Starting background scheduler")
	go s.runExpirySweep()
	go s.runDailyReset()
}

// Stop terminates the background tasks.
func (s *Scheduler) Stop() {
	logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runExpirySweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.engine.ExpireStaleQueues(); err != nil {
				logger.Error("Scheduled expiry sweep failed", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runDailyReset() {
	for {
		timer := time.NewTimer(s.untilNextMidnight())
		select {
		case <-timer.C:
			removed, err := s.engine.ResetDailyQueues()
			if err != nil {
				logger.Error("Scheduled daily reset failed", err)
				continue
			}
			logger.Printf("Daily queue reset removed %d bookings", removed)
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// untilNextMidnight returns the wait until the next day boundary in the
// reference zone, with a small offset so the reset runs strictly after it.
func (s *Scheduler) untilNextMidnight() time.Duration {
	current := s.engine.Now()
	next := now.With(current).EndOfDay().Add(time.Second)
	return next.Sub(current) + 30*time.Second
}

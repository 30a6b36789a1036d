package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"backoffice/config"
	"backoffice/models"
	"backoffice/services"
)

// Scheduler periodically logs the size of each review stage so operators
// can watch the queue drain (or pile up) without querying the API.
type Scheduler struct {
	cfg    config.SchedulerConfig
	review *services.ReviewService
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(cfg config.SchedulerConfig, review *services.ReviewService) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		review: review,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.StatsCron != "" {
		log.Printf("[scheduler] stats report on cron: %s", s.cfg.StatsCron)
		_, err := s.cron.AddFunc(s.cfg.StatsCron, func() {
			s.reportStats(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Interval > 0 {
		log.Printf("[scheduler] stats report every %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.reportStats(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}

	log.Println("[scheduler] no stats schedule configured")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) reportStats(ctx context.Context) {
	stats, err := s.review.Stats(ctx)
	if err != nil {
		log.Printf("[scheduler] stats query failed: %v", err)
		return
	}

	parts := make([]string, 0, len(stats))
	for _, status := range models.AllListingStatuses() {
		parts = append(parts, fmt.Sprintf("%s=%d", status, stats[status]))
	}
	log.Printf("[scheduler] review queue: %s", strings.Join(parts, " "))
}

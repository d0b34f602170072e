package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/sync/internal/state"

	log "github.com/sirupsen/logrus"
)

// Schedule runs Sync once right away and then every interval until ctx is
// done. A tick that finds a run still going is skipped.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid sync interval %s", interval)
	}
	log.Infof("⏰ Sync scheduled every %s", interval)

	s.scheduledSync(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("🛑 Scheduler stopping")
			return nil
		case <-ticker.C:
			s.scheduledSync(ctx)
		}
	}
}

func (s *Service) scheduledSync(ctx context.Context) {
	_, err := s.Sync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress), errors.Is(err, state.ErrLockHeld):
		log.Warnf("⏭️ Skipping scheduled sync: %v", err)
	case ctx.Err() != nil:
	default:
		log.Errorf("❌ Scheduled sync failed: %v", err)
	}
}

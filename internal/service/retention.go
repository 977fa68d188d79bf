package service

import (
	"Go_Vault/internal/repo"
	"Go_Vault/model"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const sweepLockKey = "lock:retention-sweep"

// SweepResult summarises one retention run.
type SweepResult struct {
	Cutoff       time.Time
	FilesPurged  int
	FilesFailed  int
	TokensPurged int64
	Skipped      bool
	Duration     time.Duration
}

// RetentionSweeper purges trashed files and dead public tokens once a day.
type RetentionSweeper struct {
	retention time.Duration
	hour      int
	minute    int
	lockTTL   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRetentionSweeper creates a sweeper that runs daily at hour:minute local time.
func NewRetentionSweeper(retention time.Duration, hour, minute int, lockTTL time.Duration) *RetentionSweeper {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &RetentionSweeper{
		retention: retention,
		hour:      hour,
		minute:    minute,
		lockTTL:   lockTTL,
	}
}

// Start launches the scheduling goroutine.
func (s *RetentionSweeper) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)
	log.Printf("retention: scheduled daily at %02d:%02d, retention %s", s.hour, s.minute, s.retention)
}

// Stop cancels the schedule and waits for an in-flight run to finish.
func (s *RetentionSweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	log.Println("retention: stopped")
}

func (s *RetentionSweeper) run(ctx context.Context) {
	defer close(s.done)
	for {
		next := NextDailyRun(time.Now(), s.hour, s.minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				log.Printf("retention: run failed: %v", err)
			}
		}
	}
}

// NextDailyRun returns the first hour:minute strictly after from, in from's location.
func NextDailyRun(from time.Time, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce sweeps with cutoff = now - retention.
func (s *RetentionSweeper) RunOnce(ctx context.Context) (*SweepResult, error) {
	return s.SweepBefore(ctx, now().Add(-s.retention))
}

// SweepBefore purges files trashed before cutoff and tokens that expired before cutoff.
// Runs never overlap: in-process via a mutex, across instances via a Redis lock when Redis is configured.
func (s *RetentionSweeper) SweepBefore(ctx context.Context, cutoff time.Time) (*SweepResult, error) {
	result := &SweepResult{Cutoff: cutoff}
	if !s.mu.TryLock() {
		result.Skipped = true
		sweepRunsTotal.WithLabelValues("skipped").Inc()
		return result, nil
	}
	defer s.mu.Unlock()

	if repo.Redis != nil {
		lock := repo.NewRedisLock(repo.Redis, sweepLockKey, s.lockTTL)
		if err := lock.Lock(ctx); err != nil {
			if errors.Is(err, repo.ErrLockBusy) {
				log.Println("retention: another instance holds the sweep lock, skipping")
				result.Skipped = true
				sweepRunsTotal.WithLabelValues("skipped").Inc()
				return result, nil
			}
			sweepRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		defer func() {
			if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Printf("retention: release lock: %v", err)
			}
		}()
	}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		sweepDuration.Observe(result.Duration.Seconds())
	}()

	var keys []string
	if err := dbWith(ctx).Model(&model.FileRecord{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at ASC").
		Pluck("storage_key", &keys).Error; err != nil {
		sweepRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		rec, err := purgeFile(ctx, key, 0, true)
		if err != nil {
			log.Printf("retention: purge %s failed: %v", key, err)
			result.FilesFailed++
			continue
		}
		result.FilesPurged++
		LogAction(ctx, ActionFilePermanentDelete, rec.User.Email, rec,
			"Permanently deleted file after retention period: "+rec.DisplayName)
	}

	// expired tokens stay until the cutoff so repeat access keeps reporting expiry; revoked ones go now
	res := dbWith(ctx).
		Where("expires_at < ? OR (active = ? AND expires_at > ?)", cutoff, false, now()).
		Delete(&model.PublicAccessToken{})
	if res.Error != nil {
		log.Printf("retention: purge tokens failed: %v", res.Error)
	} else {
		result.TokensPurged = res.RowsAffected
	}

	sweepFilesPurgedTotal.Add(float64(result.FilesPurged))
	sweepFilesFailedTotal.Add(float64(result.FilesFailed))
	sweepTokensPurgedTotal.Add(float64(result.TokensPurged))
	if result.FilesFailed > 0 {
		sweepRunsTotal.WithLabelValues("partial").Inc()
	} else {
		sweepRunsTotal.WithLabelValues("success").Inc()
	}
	log.Printf("retention: cutoff %s purged %d files (%d failed), %d tokens",
		cutoff.Format(time.RFC3339), result.FilesPurged, result.FilesFailed, result.TokensPurged)
	return result, ctx.Err()
}

package database

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Ping verifies the database responds within 5 seconds.
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close shuts the pool down. Safe to call more than once.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		log.Println("[DATABASE] Pool is already closed or was never initialized")
		return nil
	}

	log.Println("[DATABASE] Closing database connection pool...")
	db.Pool.Close()
	db.Pool = nil
	log.Println("[DATABASE] Connection pool closed successfully")

	return nil
}

// PoolStats is a snapshot of the pool for monitoring.
type PoolStats struct {
	AcquireCount            int64
	AcquireDuration         time.Duration
	AcquiredConns           int32
	CanceledAcquireCount    int64
	ConstructingConns       int32
	EmptyAcquireCount       int64
	IdleConns               int32
	MaxConns                int32
	TotalConns              int32
	NewConnsCount           int64
	MaxLifetimeDestroyCount int64
	MaxIdleDestroyCount     int64
}

// Stats returns an atomic snapshot of pool statistics.
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	rawStats := db.Pool.Stat()

	return &PoolStats{
		AcquiredConns:     rawStats.AcquiredConns(),
		ConstructingConns: rawStats.ConstructingConns(),
		IdleConns:         rawStats.IdleConns(),
		TotalConns:        rawStats.TotalConns(),
		MaxConns:          rawStats.MaxConns(),

		AcquireCount:         rawStats.AcquireCount(),
		AcquireDuration:      rawStats.AcquireDuration(),
		CanceledAcquireCount: rawStats.CanceledAcquireCount(),
		EmptyAcquireCount:    rawStats.EmptyAcquireCount(),
		NewConnsCount:        rawStats.NewConnsCount(),

		MaxLifetimeDestroyCount: rawStats.MaxLifetimeDestroyCount(),
		MaxIdleDestroyCount:     rawStats.MaxIdleDestroyCount(),
	}, nil
}

func calculateAvgDuration(totalDuration time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return totalDuration / time.Duration(count)
}

// MonitorPoolHealth logs pool pressure periodically. Run in its own
// goroutine; returns when ctx is cancelled.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Printf("[MONITOR] Failed to get stats: %v", err)
				continue
			}

			utilizationPct := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
			if utilizationPct > 80 {
				log.Printf("[MONITOR] HIGH POOL UTILIZATION: %.1f%% (%d/%d)",
					utilizationPct, stats.AcquiredConns, stats.MaxConns)
			}

			avgAcquireDuration := calculateAvgDuration(stats.AcquireDuration, stats.AcquireCount)
			if avgAcquireDuration > 100*time.Millisecond {
				log.Printf("[MONITOR] HIGH ACQUIRE LATENCY: %v", avgAcquireDuration)
			}

			if stats.CanceledAcquireCount > 0 {
				cancelRate := float64(stats.CanceledAcquireCount) /
					float64(stats.AcquireCount) * 100
				if cancelRate > 5 {
					log.Printf("[MONITOR] HIGH CANCEL RATE: %.1f%%", cancelRate)
				}
			}

		case <-ctx.Done():
			log.Println("[MONITOR] Stopping pool health monitoring")
			return
		}
	}
}

package queue

import (
	"encoding/json"
	"time"

	"pharmacy-backend/internal/config"
	"pharmacy-backend/internal/shared"
	"pharmacy-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerReorderForecastJob()
}

// ================================================
// JOB: Reorder Demand Forecast (daily, default 6 AM)
// ================================================
// Runs once a day before opening hours so suggestions are waiting when
// pharmacists arrive. The payload carries no pharmacy id, which tells the
// handler to fan out over every tenant.
func (s *Scheduler) registerReorderForecastJob() error {
	payload, err := json.Marshal(shared.ReorderForecastPayload{
		HorizonDays: s.jobConfig.ReorderHorizonDays,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReorderForecast, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ReorderCron,
		task,
		asynq.Queue(shared.QueueInventory),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ReorderForecast job", err)
		return err
	}

	logger.Info("Registered ReorderForecast job", map[string]interface{}{
		"cron":         s.jobConfig.ReorderCron,
		"horizon_days": s.jobConfig.ReorderHorizonDays,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// DefaultSchedule — расписание публикации по умолчанию.
const DefaultSchedule = "@every 2m"

// Job — периодическая публикация.
type Job interface {
	PublishPending(ctx context.Context) (int, error)
}

// Scheduler — запуск Job по расписанию.
type Scheduler struct {
	job      Job
	elector  Elector
	schedule string
	logger   *slog.Logger
}

// Config — конфигурация Scheduler.
type Config struct {
	Job Job

	// Elector — выбор лидера (default: AlwaysLeader).
	Elector Elector

	// Schedule — cron-выражение или дескриптор (default: @every 2m).
	Schedule string

	Logger *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	elector := cfg.Elector
	if elector == nil {
		elector = AlwaysLeader{}
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Scheduler{
		job:      cfg.Job,
		elector:  elector,
		schedule: schedule,
		logger:   telemetry.OrDiscard(cfg.Logger),
	}
}

// Tick выполняет один запуск публикации.
//
// 1. Проверяет лидерство; не лидер — тик пропускается
// 2. Вызывает Job.PublishPending
//
// Ошибка публикации возвращается, следующий тик выполнится по расписанию.
func (s *Scheduler) Tick(ctx context.Context) error {
	leader, err := s.elector.IsLeader(ctx)
	if err != nil {
		return fmt.Errorf("leader election: %w", err)
	}
	if !leader {
		s.logger.Debug("not a leader, skipping tick")
		return nil
	}

	start := time.Now()
	published, err := s.job.PublishPending(ctx)
	if err != nil {
		return fmt.Errorf("publish pending: %w", err)
	}

	s.logger.Info("scheduler tick completed",
		"published", published,
		"duration", time.Since(start),
	)
	return nil
}

// Run выполняет Tick сразу и затем по расписанию до отмены ctx.
// Тик, запущенный во время предыдущего, пропускается.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	clog := cronLogger{s.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	_, err := c.AddFunc(s.schedule, func() {
		if err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}

	if err := s.Tick(ctx); err != nil {
		s.logger.Error("initial tick failed", "error", err)
	}

	if next, err := NextRun(s.schedule, time.Now()); err == nil {
		s.logger.Info("scheduler started", "schedule", s.schedule, "next_run", next)
	}

	c.Start()
	<-ctx.Done()

	// Ждём завершения текущего тика
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger адаптирует slog к cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

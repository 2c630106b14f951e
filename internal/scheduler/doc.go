// Package scheduler периодически запускает публикацию неопубликованных инвойсов.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Run), запуск по cron
//   - cron.go      — парсинг расписания и вычисление следующего запуска
//   - leader.go    — выбор лидера через pg_try_advisory_lock
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Job:      publisher,         // dispatch.Publisher
//	    Elector:  scheduler.NewPGElector(pool, lockKey, logger),
//	    Schedule: "@every 2m",
//	    Logger:   logger,
//	})
//
//	// Первый запуск сразу, затем по расписанию до отмены ctx
//	if err := sched.Run(ctx); err != nil {
//	    logger.Error("scheduler failed", "error", err)
//	}
//
// Leader Election:
//
// Публикует только экземпляр, удерживающий advisory lock. Остальные
// экземпляры пропускают тики, пока lock не освободится.
package scheduler

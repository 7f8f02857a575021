package core

import (
	"context"
	"fmt"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"sync"
	"time"
)

// Orchestrator runs every worker once on start and then on its cron schedule.
// Runs of the same worker never overlap.
type Orchestrator struct {
	workers []Worker
	logger  *zap.Logger

	cron    *cron.Cron
	cancel  context.CancelFunc
	startup sync.WaitGroup
}

func NewOrchestrator(logger *zap.Logger, workers []Worker) *Orchestrator {
	return &Orchestrator{workers: workers, logger: logger}
}

func (o *Orchestrator) Start(ctx context.Context) error {
	if o.cron != nil {
		return fmt.Errorf("orchestrator already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cronLogger := cron.PrintfLogger(zap.NewStdLog(o.logger.Named("cron")))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	for _, worker := range o.workers {
		worker := worker
		_, err := c.AddFunc(worker.Schedule(), func() {
			o.run(runCtx, worker)
		})

		if err != nil {
			cancel()
			return fmt.Errorf("schedule worker %s: %w", worker.Name(), err)
		}
	}

	o.cron = c
	o.cancel = cancel

	for _, worker := range o.workers {
		worker := worker
		o.startup.Add(1)
		go func() {
			defer o.startup.Done()
			o.run(runCtx, worker)
		}()
	}

	c.Start()
	o.logger.Info("Orchestrator started", zap.Int("workers", len(o.workers)))
	return nil
}

// Stop cancels in-flight work and waits for running jobs to return, bounded by ctx.
func (o *Orchestrator) Stop(ctx context.Context) error {
	if o.cron == nil {
		return nil
	}

	o.cancel()
	cronDone := o.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		o.startup.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("Orchestrator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context, worker Worker) {
	if ctx.Err() != nil {
		return
	}
	if !worker.Ready(time.Now()) {
		o.logger.Debug("Worker busy, skipping run", zap.String("worker", worker.Name()))
		return
	}
	worker.Execute(ctx)
}

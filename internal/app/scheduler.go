package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PastBookingCompleter завершает брони, дата которых прошла
type PastBookingCompleter interface {
	CompletePastBookings(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer PastBookingCompleter
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(completer PastBookingCompleter, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		completer: completer,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runCompletionTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прогона
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runCompletionTask периодически переводит прошедшие подтверждённые брони в completed
func (s *Scheduler) runCompletionTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completePast(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completePast(ctx)
		case <-s.stopChan:
			s.logger.Info("Booking completion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Booking completion task cancelled")
			return
		}
	}
}

func (s *Scheduler) completePast(ctx context.Context) {
	n, err := s.completer.CompletePastBookings(ctx)
	if err != nil {
		s.logger.Error("Failed to complete past bookings", zap.Error(err))
		return
	}
	s.logger.Debug("Booking completion pass finished", zap.Int64("completed", n))
}

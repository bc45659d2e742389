package waitlist

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout ограничивает длительность одного прохода
const sweepTimeout = time.Minute

// Sweeper запускает проверку истекших офферов по расписанию
type Sweeper struct {
	service *Service
	cron    *cron.Cron
	logger  Logger
}

// NewSweeper создает планировщик проверки истечения офферов
// schedule в формате cron (например "@every 1m")
func NewSweeper(service *Service, schedule string, logger Logger) (*Sweeper, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		service.Sweep(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("waitlist sweeper: invalid schedule %q: %w", schedule, err)
	}

	return &Sweeper{
		service: service,
		cron:    c,
		logger:  logger,
	}, nil
}

// Start запускает планировщик
func (s *Sweeper) Start() {
	s.logger.Info("waitlist sweeper: started")
	s.cron.Start()
}

// Stop останавливает планировщик и дожидается завершения текущего прохода
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("waitlist sweeper: stopped")
}

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type TokenPurger interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// TokenCleanup по расписанию удаляет истекшие и отозванные refresh токены
type TokenCleanup struct {
	cron   *cron.Cron
	tokens TokenPurger
	log    zerolog.Logger
}

func NewTokenCleanup(schedule string, tokens TokenPurger, log zerolog.Logger) (*TokenCleanup, error) {
	c := &TokenCleanup{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		tokens: tokens,
		log:    log.With().Str("component", "token_cleanup").Logger(),
	}
	if _, err := c.cron.AddFunc(schedule, c.run); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return c, nil
}

// Start блокирует до отмены ctx и дожидается текущего запуска
func (c *TokenCleanup) Start(ctx context.Context) error {
	c.cron.Start()
	c.log.Info().Msg("token cleanup scheduled")

	<-ctx.Done()
	<-c.cron.Stop().Done()
	return nil
}

func (c *TokenCleanup) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := c.tokens.CleanupExpired(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to purge refresh tokens")
		return
	}
	c.log.Info().Int64("removed", removed).Msg("refresh tokens purged")
}

package main

import (
	"context"
	"fmt"
	"onetime/internal/config"
	"onetime/internal/core/domain/logging"
	dt "onetime/internal/core/domain/token"
	"onetime/internal/core/services/activation"
	"onetime/internal/core/services/reminders"
	dbtoken "onetime/internal/db/token"
	dbuser "onetime/internal/db/user"
	codegenerator "onetime/internal/implementations/code_generator"
	zaplogging "onetime/internal/implementations/logging"
	passwordhasher "onetime/internal/implementations/password_hasher"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// sweeper periodically deletes expired activation and reminder tokens.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Could not load configuration: %v.", err))
	}

	log := zaplogging.NewZapLogger()
	defer log.Sync()

	pool, err := pgxpool.Connect(context.Background(), cfg.PostgresqlURL)
	if err != nil {
		panic(fmt.Sprintf("Could not connect to the database: %v.", err))
	}
	defer pool.Close()

	now := func() time.Time { return time.Now().UTC() }
	codes := codegenerator.NewGenerator(cfg.CodeLength)
	hasher := passwordhasher.NewBcrypt(cfg.PasswordSecret, cfg.BcryptCost)

	activationService := activation.New(
		log,
		dt.NewLifecycle(
			dbtoken.NewPgxStore(pool, dbtoken.ActivationTable, now),
			codes,
			now,
			cfg.ActivationWindow,
		),
	)
	reminderService := reminders.New(
		log,
		dt.NewLifecycle(
			dbtoken.NewPgxStore(pool, dbtoken.ReminderTable, now),
			codes,
			now,
			cfg.ReminderWindow,
		),
		dbuser.NewPgxDirectory(pool, hasher),
	)

	ticker := time.NewTicker(cfg.SweepPeriod)
	defer ticker.Stop()

	stopCh, closeCh := createChannel()
	defer closeCh()

	log.Info(
		context.Background(),
		"Starting periodic token sweeper.",
		logging.Entry("periodMinutes", cfg.SweepPeriod.Minutes()),
	)

loop:
	for {
		select {
		case <-stopCh:
			log.Info(context.Background(), "Stopping periodic token sweeper.")
			break loop
		case <-ticker.C:
			if _, err := activationService.RemoveExpired(context.Background()); err != nil {
				log.Error(
					context.Background(),
					"Activation token sweep returned an error.",
					logging.Entry("err", err),
				)
			}
			if _, err := reminderService.RemoveExpired(context.Background()); err != nil {
				log.Error(
					context.Background(),
					"Reminder token sweep returned an error.",
					logging.Entry("err", err),
				)
			}
		}
	}
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}

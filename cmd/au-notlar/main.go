package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oralet86/au-notlar/lib/configutil"
	configsqlite "github.com/oralet86/au-notlar/lib/configutil/sqlite"
	"github.com/oralet86/au-notlar/lib/telemetry"
	"github.com/oralet86/au-notlar/services/gradestore"
	gradestoredb "github.com/oralet86/au-notlar/services/gradestore/db"
	"github.com/oralet86/au-notlar/services/manager"
	"github.com/oralet86/au-notlar/services/notifier"
	"github.com/oralet86/au-notlar/services/obs"
)

type Config struct {
	LoginUrl        string              `json:"login_url"`
	IntervalSeconds int                 `json:"interval_seconds"`
	RecognizerUrl   string              `json:"recognizer_url"`
	TelegramToken   string              `json:"telegram_token"`
	Database        configsqlite.Struct `json:"database"`
	Accounts        []obs.Account       `json:"accounts"`
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		fatal("failed to read config", err)
	}
	if config.LoginUrl == "" {
		config.LoginUrl = "https://obs.ankara.edu.tr/Account/Login"
	}
	if config.IntervalSeconds == 0 {
		config.IntervalSeconds = 300
	}

	db, err := config.Database.OpenDB(gradestoredb.Schema)
	if err != nil {
		fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "au-notlar")
	if err != nil {
		fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())

	store := gradestore.NewStore(db)

	var notify manager.Notifier
	if config.TelegramToken != "" {
		bot, err := notifier.NewService(config.TelegramToken, store)
		if err != nil {
			fatal("failed to start telegram bot", err)
		}
		go bot.Start(ctx)
		notify = bot
	} else {
		slog.Warn("no telegram token configured, changes will only be logged")
	}

	oracle := obs.NewHTTPOracle(config.RecognizerUrl)
	m, err := manager.New(manager.Options{
		Accounts: config.Accounts,
		Interval: time.Duration(config.IntervalSeconds) * time.Second,
		Store:    store,
		Notifier: notify,
		NewRunner: func(account obs.Account) (manager.ScrapeRunner, error) {
			return obs.NewSession(account, obs.SessionOptions{
				LoginUrl: config.LoginUrl,
				Oracle:   oracle,
			})
		},
	})
	if err != nil {
		fatal("failed to construct manager", err)
	}

	err = m.Run(ctx)
	if err != nil {
		fatal("manager exited", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
)

const usage = `usage: budget <command> [flags]

commands:
  import <file.csv>      load transactions from a CSV export
  report                 weekly budget comparisons with rollover
  monthly                monthly budget comparisons
  predict                cash-flow prediction from plan and history
  trend                  net income per period with trailing average
  ledger <category>      weekly rollover statement for one category
  categories             categories that have transactions
  delete <id>            remove one stored transaction
  plan show|set|sync     show, replace, or pull the budget plan
  recompute              ask the worker to rebuild published reports
  publish                write reports to the configured backend now
`

func main() {
	cli.LoadEnvFile()
	// stdout carries reports
	logger := cli.SetupLogger(log.ComponentCLI, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("Command failed", log.FieldError, err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, logger *log.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}

	handler, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	svc, err := openService(logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Close failed", log.FieldError, err)
		}
	}()

	return handler(&app{cfg: cfg, svc: svc, out: out, logger: logger}, ctx, rest)
}

var commands = map[string]func(a *app, ctx context.Context, args []string) error{
	"import":     (*app).importCSV,
	"report":     (*app).weekly,
	"monthly":    (*app).monthly,
	"predict":    (*app).predict,
	"trend":      (*app).trend,
	"ledger":     (*app).ledger,
	"categories": (*app).categories,
	"delete":     (*app).deleteTx,
	"plan":       (*app).plan,
	"recompute":  (*app).recompute,
	"publish":    (*app).publish,
}

func openService(logger *log.Logger, cfg *config.Config) (*services.BudgetService, error) {
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// a nil *amqp.Client must not end up inside the Publisher interface
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, recompute requests disabled", log.FieldError, err)
		} else {
			publisher = client
		}
	}

	snapshots := cache.NewLRUCache[*services.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	return services.NewBudgetService(repo, publisher, snapshots, cfg.TrendWindow), nil
}

// Command suppression-import drains the queue of suppression list CSV
// imports uploaded through /suppression-lists/{list_uid}/emails/import-queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/customer-console/internal/config"
	"github.com/ignite/customer-console/internal/pkg/logger"
	"github.com/ignite/customer-console/internal/repository/postgres"
	"github.com/ignite/customer-console/internal/service/quota"
	"github.com/ignite/customer-console/internal/service/suppression"
	"github.com/ignite/customer-console/internal/storage"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "suppression-import",
		Usage: "Process queued suppression list imports",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config/config.yaml", Usage: "path to the YAML config"},
		},
		Commands: []*cli.Command{
			processCommand(),
			watchCommand(),
			listCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.Run(ctx, args); err != nil {
		log.Fatal(err)
	}
}

func processCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Import every pending file, then exit",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max", Value: 0, Usage: "stop after this many imports (0 = until the queue is empty)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, closeFn, err := openService(ctx, c.String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := drain(ctx, svc, int(c.Int("max")))
			fmt.Printf("processed %d imports\n", n)
			return err
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll the queue until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "interval", Value: 30 * time.Second, Usage: "delay between polls when the queue is empty"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, closeFn, err := openService(ctx, c.String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			interval := c.Duration("interval")
			logger.Info("watching suppression import queue", "interval", interval.String())
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if _, err := drain(ctx, svc, 0); err != nil && ctx.Err() == nil {
					logger.Error("draining import queue failed", "error", err)
				}
				select {
				case <-ctx.Done():
					logger.Info("import watcher stopped")
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Show pending imports",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 50},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, closeFn, err := openService(ctx, c.String("config"))
			if err != nil {
				return err
			}
			defer closeFn()

			jobs, err := svc.PendingImports(ctx, int(c.Int("limit")))
			if err != nil {
				return err
			}
			for _, j := range jobs {
				fmt.Printf("%s  %-10s  list=%d  file=%s  queued=%s\n", j.UID, j.Status, j.ListID, j.OriginalName, j.DateAdded.Format(time.RFC3339))
			}
			fmt.Printf("Total: %d pending\n", len(jobs))
			return nil
		},
	}
}

// drain processes imports until the queue is empty or limit is reached. A
// failing file does not stop the run; it is recorded on its job.
func drain(ctx context.Context, svc *suppression.Service, limit int) (int, error) {
	n := 0
	for limit <= 0 || n < limit {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		job, err := svc.ProcessNext(ctx)
		if errors.Is(err, suppression.ErrNoPendingImport) {
			return n, nil
		}
		if job == nil && err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func openService(ctx context.Context, path string) (*suppression.Service, func(), error) {
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(!cfg.Log.DisableRedaction)

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	checker := quota.NewChecker(postgres.NewQuotaRepo(db), cfg.Quotas.Defaults, nil, 0)
	svc := suppression.NewService(postgres.NewSuppressionRepo(db), checker, store)
	return svc, func() { db.Close() }, nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"billdesk/internal/caching"
	"billdesk/internal/config"
	"billdesk/internal/invoicing"
	"billdesk/internal/repositories"
	"billdesk/pkg/database"
)

func main() {
	app := &cli.App{
		Name:  "invoicectl",
		Usage: "maintenance commands for the invoicing database",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply the embedded schema",
				Action: migrate,
			},
			{
				Name:  "mark-overdue",
				Usage: "mark sent and unpaid invoices past their due date as overdue",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:   "as-of",
						Usage:  "cut-off date (defaults to today, UTC)",
						Layout: "2006-01-02",
					},
				},
				Action: markOverdue,
			},
			{
				Name:   "next-number",
				Usage:  "allocate an unused invoice number",
				Action: nextNumber,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := database.NewPool(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return database.Migrate(c.Context, pool)
}

func markOverdue(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := database.NewPool(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if ts := c.Timestamp("as-of"); ts != nil {
		asOf = ts.UTC()
	}

	n, err := repositories.NewInvoiceRepo(pool).MarkOverdue(c.Context, asOf)
	if err != nil {
		return fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%d invoice(s) marked overdue\n", n)

	if n > 0 {
		cache := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
		defer cancel()
		if err := cache.InvalidateAllDashboards(ctx); err != nil {
			log.Printf("WARN: failed to flush dashboard cache: %v", err)
		}
	}
	return nil
}

func nextNumber(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := database.NewPool(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	allocator := invoicing.NewAllocator(repositories.NewInvoiceRepo(pool), cfg.InvoiceNumberAttempts)
	number, err := allocator.Allocate(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, number)
	return nil
}

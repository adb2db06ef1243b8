// auditctl inspects stored receipt audits and runs offline audits.
//
// Usage:
//
//	auditctl list [--limit 20] [--offset 0]
//	auditctl show <audit-id>
//	auditctl verify --receipt receipt.txt --cart cart.json [--store "Corner Market"]
//	auditctl ping
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"recibo/internal/config"
	"recibo/internal/database"
	"recibo/internal/model"
	"recibo/internal/reconcile"
	"recibo/internal/repository"
	"recibo/internal/vocab"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "auditctl",
		Usage:   "Inspect stored receipt audits and run offline audits",
		Version: version,
		Writer:  out,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection string",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Timeout for database operations",
			},
		},

		Commands: []*cli.Command{
			listCommand(),
			showCommand(),
			verifyCommand(),
			pingCommand(),
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored audits, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of audits"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Number of audits to skip"},
		},
		Action: func(c *cli.Context) error {
			return withRepository(c, func(ctx context.Context, repo repository.AuditRepository) error {
				audits, err := repo.List(ctx, c.Int("limit"), c.Int("offset"))
				if err != nil {
					return err
				}
				for _, a := range audits {
					status := "VERIFIED"
					if !a.VerificationResult.Verified {
						status = fmt.Sprintf("%d ISSUE(S)", len(a.VerificationResult.Discrepancies))
					}
					fmt.Fprintf(c.App.Writer, "%s  %s  %-20s  %2d items  %s\n",
						a.ID, a.CreatedAt.Format(time.RFC3339), orDash(a.StoreContext), len(a.Items), status)
				}
				return nil
			})
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a stored audit as JSON",
		ArgsUsage: "<audit-id>",
		Action: func(c *cli.Context) error {
			id, err := uuid.Parse(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid audit id %q: %w", c.Args().First(), err)
			}
			return withRepository(c, func(ctx context.Context, repo repository.AuditRepository) error {
				record, err := repo.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if record == nil {
					return model.ErrAuditNotFound
				}
				return printJSON(c.App.Writer, record)
			})
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Audit a receipt text file against a cart with the local matcher",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "receipt", Aliases: []string{"r"}, Usage: "Path to the receipt text", Required: true},
			&cli.StringFlag{Name: "cart", Aliases: []string{"c"}, Usage: "Path to a JSON array of cart items", Required: true},
			&cli.StringFlag{Name: "store", Usage: "Store name"},
			&cli.StringSliceFlag{Name: "vocab", Usage: "Gzipped qualifier word lists", EnvVars: []string{"VOCAB_FILES"}},
		},
		Action: runVerify,
	}
}

func runVerify(c *cli.Context) error {
	logger := newLogger(c)

	receipt, err := os.ReadFile(c.String("receipt"))
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}

	cartData, err := os.ReadFile(c.String("cart"))
	if err != nil {
		return fmt.Errorf("failed to read cart: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(cartData, &items); err != nil {
		return fmt.Errorf("failed to parse cart: %w", err)
	}

	lexicon, err := vocab.NewLexicon(c.Context, c.StringSlice("vocab"), vocab.NewFileLoader(logger), logger)
	if err != nil {
		return err
	}

	engine := reconcile.NewEngine(reconcile.Config{
		Arbiter: reconcile.NewHeuristic(lexicon),
	}, logger)

	outcome := engine.Verify(c.Context, reconcile.Request{
		ReceiptText:  string(receipt),
		Items:        items,
		StoreContext: c.String("store"),
	})
	if outcome.State == reconcile.StateDegraded {
		fmt.Fprintf(c.App.ErrWriter, "audit degraded in %s: %v\n", outcome.FailedIn, outcome.Cause)
	}

	return printJSON(c.App.Writer, outcome.Verdict)
}

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check the database connection and schema",
		Action: func(c *cli.Context) error {
			return withRepository(c, func(ctx context.Context, repo repository.AuditRepository) error {
				if err := repo.Ping(ctx); err != nil {
					return err
				}
				audits, err := repo.List(ctx, 1, 0)
				if err != nil {
					return fmt.Errorf("audits table not readable: %w", err)
				}
				fmt.Fprintf(c.App.Writer, "database reachable, audits table ready (%d latest)\n", len(audits))
				return nil
			})
		},
	}
}

// withRepository opens a pool for the duration of fn.
func withRepository(c *cli.Context, fn func(context.Context, repository.AuditRepository) error) error {
	url := c.String("database-url")
	if url == "" {
		return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
	}

	logger := newLogger(c)
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		URL:            url,
		MaxConnections: 2,
		MinConnections: 0,
	}, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, repository.NewAuditRepository(pool, logger))
}

func newLogger(c *cli.Context) zerolog.Logger {
	return config.NewLoggerTo(config.LoggerConfig{
		Level:  strings.ToLower(c.String("log-level")),
		Format: "console",
	}, c.App.ErrWriter)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

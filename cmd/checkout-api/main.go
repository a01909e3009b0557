package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/aq2208/gorder-checkout/cmd/checkout-api/app"
	"github.com/aq2208/gorder-checkout/configs"
	"github.com/aq2208/gorder-checkout/internal/logging"
)

func main() {
	cliApp := &cli.App{
		Name:  "checkout-api",
		Usage: "storefront cart, pricing and checkout service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory holding base.yaml and <env>.yaml"},
			&cli.StringFlag{Name: "env", Value: "dev", EnvVars: []string{"APP_ENV"}, Usage: "dev | staging | prod"},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and gRPC health endpoint",
				Action: withConfig("checkout-api", func(ctx context.Context, cfg configs.Config, _ *cli.Context) error {
					gin.SetMode(gin.ReleaseMode)
					return app.Serve(ctx, cfg)
				}),
			},
			{
				Name:  "ledger-worker",
				Usage: "record submitted order intents from RabbitMQ into MySQL",
				Action: withConfig("ledger-worker", func(ctx context.Context, cfg configs.Config, _ *cli.Context) error {
					return app.RunLedgerWorker(ctx, cfg)
				}),
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Action: withConfig("migrate", func(ctx context.Context, cfg configs.Config, _ *cli.Context) error {
					return app.RunMigrations(ctx, cfg)
				}),
			},
			{
				Name:      "quote",
				Usage:     "print the price breakdown of a cart snapshot",
				ArgsUsage: "<cart.json | ->",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "coupon", Usage: "coupon code to apply"},
					&cli.StringFlag{Name: "shipping", Value: "standard", Usage: "standard | express"},
				},
				Action: withConfig("quote", func(_ context.Context, cfg configs.Config, c *cli.Context) error {
					in := os.Stdin
					if p := c.Args().First(); p != "" && p != "-" {
						f, err := os.Open(p)
						if err != nil {
							return err
						}
						defer f.Close()
						in = f
					}
					return app.PrintQuote(c.App.Writer, in, cfg.Pricing, c.String("coupon"), c.String("shipping"))
				}),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type action func(ctx context.Context, cfg configs.Config, c *cli.Context) error

// withConfig loads configuration, sets up logging and cancels the context on SIGINT/SIGTERM.
func withConfig(component string, fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := configs.Load(c.String("config-dir"), c.String("env"))
		if err != nil {
			return err
		}
		l := logging.Init(component, logging.Options{FilePath: cfg.App.LogFile, Level: cfg.App.LogLevel})

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithCtx(ctx, l)

		l.Debug("starting", "env", c.String("env"))
		return fn(ctx, cfg, c)
	}
}

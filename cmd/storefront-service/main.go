// cmd/storefront-service/main.go
package main

import (
	"os"

	zlog "github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"teahouse/internal/pkg/bootstrap"
	"teahouse/internal/pkg/logger"
)

const serviceName = "storefront-service"

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "tea shop storefront: catalog, coupons and orders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML config file",
				EnvVars: []string{bootstrap.EnvPrefix + "_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := bootstrap.Init(c.String("config"))
			if err != nil {
				return err
			}
			logger.Init(cfg.App.Name, cfg.Log.Level, os.Stdout)
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			sessionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		zlog.Fatal().Err(err).Msg("storefront-service exited")
	}
}

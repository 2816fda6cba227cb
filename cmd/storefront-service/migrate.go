package main

import (
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"teahouse/internal/pkg/bootstrap"
	"teahouse/internal/pkg/database"
	catalogInfra "teahouse/internal/service/catalog/infrastructure"
	orderInfra "teahouse/internal/service/order/infrastructure"
	promoInfra "teahouse/internal/service/promotion/infrastructure"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the database schema",
		Action: func(c *cli.Context) error {
			cfg := bootstrap.GetCurrentConfig()
			db, err := database.Open(cfg.Infra.MySQL, cfg.Log.Level)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()

			var models []any
			models = append(models, catalogInfra.Models()...)
			models = append(models, promoInfra.Models()...)
			models = append(models, orderInfra.Models()...)
			if err := db.WithContext(c.Context).AutoMigrate(models...); err != nil {
				return errors.Wrap(err, "auto migrate")
			}
			zlog.Info().Int("tables", len(models)).Msg("schema migrated")
			return nil
		},
	}
}

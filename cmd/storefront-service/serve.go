package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"

	"teahouse/internal/pkg/bootstrap"
	"teahouse/internal/pkg/database"
	"teahouse/internal/pkg/httpclient"
	"teahouse/internal/pkg/mq"
	"teahouse/internal/pkg/redis"
	"teahouse/internal/pkg/session"
	catalogApp "teahouse/internal/service/catalog/application"
	catalogInfra "teahouse/internal/service/catalog/infrastructure"
	catalogApi "teahouse/internal/service/catalog/interfaces"
	orderApp "teahouse/internal/service/order/application"
	orderInfra "teahouse/internal/service/order/infrastructure"
	"teahouse/internal/service/order/infrastructure/adapter"
	orderApi "teahouse/internal/service/order/interfaces"
	promoApp "teahouse/internal/service/promotion/application"
	promoInfra "teahouse/internal/service/promotion/infrastructure"
	promoApi "teahouse/internal/service/promotion/interfaces"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "start the HTTP API and the fulfillment consumers",
		Action: serve,
	}
}

// serve 是应用的"组装根"：创建并组装所有依赖项，然后启动服务。
func serve(c *cli.Context) error {
	cfg := bootstrap.GetCurrentConfig()
	ctx := c.Context
	tracer := otel.Tracer(serviceName)

	// 1. 基础设施
	db, err := database.Open(cfg.Infra.MySQL, cfg.Log.Level)
	if err != nil {
		return err
	}
	redisClient, err := redis.NewClient(ctx, cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		return err
	}
	sessions := session.NewManager(redisClient.GetClient(), cfg.Shop.SessionTTL)

	kafkaCfg := cfg.Infra.Kafka
	eventWriter := mq.NewKafkaWriter(kafkaCfg.Brokers, kafkaCfg.OrderEventsTopic)
	deadLetterWriter := mq.NewKafkaWriter(kafkaCfg.Brokers, kafkaCfg.DeadLetterTopic)
	fulfillmentReader := mq.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.FulfillmentTopic, kafkaCfg.ConsumerGroup)
	dltReader := mq.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.DeadLetterTopic, kafkaCfg.ConsumerGroup+"-dlt")

	// 2. 业务服务，全部在进程内组装
	catalogService := catalogApp.NewCatalogService(catalogInfra.NewGormProductRepository(db), tracer)

	couponRepo := promoInfra.NewCachedCouponRepository(promoInfra.NewGormCouponRepository(db), redisClient, cfg.Infra.Redis.CacheTTL)
	promotionService := promoApp.NewPromotionService(couponRepo, catalogService, tracer)

	orderService := orderApp.NewOrderApplicationService(
		orderInfra.NewGormOrderRepository(db),
		tracer,
		orderApp.Settings{
			Currency:          cfg.Shop.Currency,
			ShippingFee:       cfg.Shop.ShippingFee,
			CancelReasonLimit: cfg.Shop.CancelReasonLimit,
		},
		adapter.NewCatalogAdapter(catalogService),
		adapter.NewCouponAdapter(promotionService),
		orderInfra.NewOrderEventKafkaAdapter(eventWriter),
		adapter.NewPaymentHTTPAdapter(httpclient.NewClient(tracer), cfg.Shop.PaymentBaseURL, cfg.Shop.PaymentAPIKey, cfg.Shop.PaymentTimeout),
	)

	// 3. 驱动适配器
	catalogHandler := catalogApi.NewCatalogHandler(catalogService)
	promotionHandler := promoApi.NewPromotionHandler(promotionService)
	orderHandler := orderApi.NewOrderHandler(orderService)

	return bootstrap.StartService(ctx, cfg, bootstrap.AppInfo{
		ServiceName: cfg.App.Name,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			catalogHandler.RegisterRoutes(appCtx.Mux)
			promotionHandler.RegisterRoutes(appCtx.Mux)
			orderHandler.RegisterRoutes(appCtx.Mux)
		},
		Middleware: bootstrap.Chain(bootstrap.RequestContext, session.Middleware(sessions)),
		Workers: []bootstrap.Worker{
			orderApi.NewFulfillmentConsumerAdapter(fulfillmentReader, kafkaCfg.FulfillmentTopic, orderService, deadLetterWriter),
			orderApi.NewDltConsumerAdapter(dltReader, kafkaCfg.DeadLetterTopic),
			orderApi.NewExpiryScheduler(orderService, cfg.Shop.PaymentWindow, cfg.Shop.ExpirySweepInterval),
		},
		Cleanup: []func(context.Context) error{
			func(context.Context) error { return eventWriter.Close() },
			func(context.Context) error { return deadLetterWriter.Close() },
			func(context.Context) error { return redisClient.Close() },
			func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	})
}

// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"teahouse/internal/pkg/nacos"
	"teahouse/internal/pkg/tracing"
)

type AppCtx struct {
	Mux    *http.ServeMux
	Config *Config
}

// Worker 是随服务一起启动和关停的后台任务，例如 Kafka 消费者。
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// AppInfo 包含了启动一个服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 允许每个服务注册自己独特的 HTTP 路由
	Middleware       func(http.Handler) http.Handler
	Workers          []Worker
	// Cleanup 在 HTTP 服务与 Worker 停止后按注册顺序执行。
	Cleanup []func(ctx context.Context) error
}

// StartService 封装了通用的启动和优雅关停逻辑，阻塞直到收到退出信号或出现致命错误。
func StartService(parent context.Context, cfg *Config, info AppInfo) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.SampleRatio)
	if err != nil {
		return err
	}

	var (
		namingClient *nacos.Client
		ip           string
	)
	if cfg.Infra.Nacos.ServerAddrs != "" {
		namingClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			return err
		}
		if ip, err = getOutboundIP(); err != nil {
			return err
		}
		if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}
	var handler http.Handler = mux
	if info.Middleware != nil {
		handler = info.Middleware(mux)
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: handler}

	// 按启动的逆序清理: 注册中心 -> HTTP -> worker -> tracer
	shutdown := func(started []Worker) {
		zlog.Info().Msgf("Shutting down service %s...", info.ServiceName)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if namingClient != nil {
			if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
				zlog.Error().Err(err).Msg("Error deregistering from Nacos")
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Err(err).Msg("Error shutting down http server")
		}
		for _, w := range started {
			w.Stop(shutdownCtx)
		}
		for _, fn := range info.Cleanup {
			if err := fn(shutdownCtx); err != nil {
				zlog.Error().Err(err).Msg("Error during cleanup")
			}
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Err(err).Msg("Error shutting down tracer provider")
		}
		zlog.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	for i, w := range info.Workers {
		if err := w.Start(gctx); err != nil {
			zlog.Error().Err(err).Msg("Failed to start worker")
			stop()
			// ListenAndServe 只在 Shutdown 后返回，必须先关停再等待
			shutdown(info.Workers[:i])
			_ = g.Wait()
			return err
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdown(info.Workers)
		return nil
	})

	return g.Wait()
}

// getOutboundIP 返回本机对外通信使用的 IP，用于服务注册。
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// voltstream 电池储能站实时消息管道服务.
//
// 从 Kafka 读取储能站遥测消息，对外提供历史批量查询、
// SSE 实时推送与消息发布的 HTTP 接口.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/voltgrid/voltstream/api"
	"github.com/voltgrid/voltstream/app"
	"github.com/voltgrid/voltstream/broadcast"
	"github.com/voltgrid/voltstream/config"
	"github.com/voltgrid/voltstream/logger"
	"github.com/voltgrid/voltstream/messaging"
	"github.com/voltgrid/voltstream/metrics"
	"github.com/voltgrid/voltstream/server"
	"github.com/voltgrid/voltstream/transport/sse"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg := config.MustLoad[Config](*configPath,
		config.WithEnvPrefix("VOLTSTREAM"),
		config.WithDefaults(configDefaults()),
	)

	cfg.Log.ServiceName = cfg.Service.Name
	log := logger.MustNewLogger(&cfg.Log)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.With(logger.Err(err)).Error("service exited with error")
		os.Exit(1)
	}
}

func run(cfg *Config, log logger.Logger) error {
	collector := metrics.MustNew(&cfg.Metrics)

	client, err := messaging.NewClient(
		messaging.WithBrokers(cfg.Messaging.Brokers),
		messaging.WithClientID(cfg.Messaging.ClientID),
		messaging.WithLogger(log),
		messaging.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("创建消息客户端失败: %w", err)
	}

	producer, err := client.Producer()
	if err != nil {
		return fmt.Errorf("创建生产者失败: %w", err)
	}

	broadcaster, err := broadcast.New(
		func() (broadcast.Consumer, error) {
			return client.Consumer(cfg.Messaging.GroupID)
		},
		cfg.Messaging.Topic,
		broadcast.WithLogger(log),
		broadcast.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("创建广播器失败: %w", err)
	}

	sseCfg := sse.DefaultConfig()
	sseCfg.HeartbeatInterval = cfg.HTTP.HeartbeatInterval

	handler, err := api.New(cfg.Messaging.Topic,
		api.WithHistory(client),
		api.WithPublisher(producer),
		api.WithSubscriber(broadcaster),
		api.WithHealth(client),
		api.WithLogger(log),
		api.WithMetrics(collector),
		api.WithStreamLimit(cfg.HTTP.StreamLimit),
		api.WithStreamBuffer(cfg.HTTP.StreamBuffer),
		api.WithSSEConfig(sseCfg),
	)
	if err != nil {
		return fmt.Errorf("创建 API 失败: %w", err)
	}

	httpSrv := server.NewHTTP(handler.Handler(),
		server.WithHTTPName("voltstream-http"),
		server.WithHTTPAddr(cfg.HTTP.Addr),
		server.WithHTTPLogger(log),
	)

	hooks := app.NewHooks().
		AfterStart(func(ctx context.Context) error {
			log.With(
				logger.String("addr", cfg.HTTP.Addr),
				logger.String("topic", cfg.Messaging.Topic),
			).Info("[voltstream] pipeline ready")
			return nil
		}).
		BeforeStop(func(ctx context.Context) error {
			// 先停掉广播器，推送连接在 HTTP 服务器关闭前排空
			log.Info("[voltstream] draining push streams")
			return broadcaster.Stop()
		}).
		Build()

	application := app.New(
		app.Name(cfg.Service.Name),
		app.Version(cfg.Service.Version),
		app.Logger(log),
		app.SetHooks(hooks),
		app.GracefulTimeout(cfg.Service.GracefulTimeout),
		app.RegisterCloser("messaging-client", client, 10),
	)
	application.Use(httpSrv)

	return application.Run()
}

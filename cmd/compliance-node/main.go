package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/config"
	"github.com/bsc-digital-identity/zk-compliance/pkg/appbuilder"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

const logPublisherAlias rabbitmq.PublisherAlias = "LogPublisher"

type builder = appbuilder.AppBuilderInterface[config.ComplianceNodeConfigJson, config.ComplianceNodeConfig]

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := utilities.LoadEnv(); err != nil {
		panic(err)
	}

	var n *node
	app := appbuilder.New[config.ComplianceNodeConfigJson, config.ComplianceNodeConfig]().
		InitLogger(logger.GlobalLoggerConfig{
			Args: []logger.LoggerArg{{Key: "service", Value: "compliance-node"}},
		}).
		LoadConfig(utilities.EnvOrDefault("CONFIG_PATH", "config.json")).

		// ----- RABBITMQ -----
		InitRabbitmqConnection().
		InitRabbitmqRegistries().
		WithOption(func(a builder) {
			if logPublisher := rabbitmq.GetPublisher(logPublisherAlias); logPublisher != nil {
				logger.AddSinkToLoggerInstance(a.GetLogger(), rabbitmq.CreateRabbitmqLoggerSink(logPublisher))
			}
		}).

		// ----- CATALOG, STORE, LEDGER, SERVICES -----
		WithOption(func(a builder) {
			var err error
			if n, err = wire(ctx, a.GetConfig(), a.GetLogger()); err != nil {
				a.GetLogger().Fatal(err, "Could not initialize compliance node")
			}
		}).

		// ----- WORKERS + ROUTES -----
		WithOption(func(a builder) {
			a.AddWorkerServices(n.workers...).
				AddGinRoutes(n.handler.Routes()...)
		}).
		InitGinRouter().
		Build()

	err := app.Start(ctx)
	n.close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Default().Fatal(err, "Compliance node stopped")
	}
}

package appbuilder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	Logger         *logger.Logger
	Addr           string
	Conn           *amqp.Connection
	WorkerServices []rabbitmq.WorkerService
	Engine         *gin.Engine
}

type ApplicationInterface interface {
	Start(ctx context.Context) error
}

// Start runs the workers and the REST API until ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Info("Starting Application runtime...")

	for _, ws := range a.WorkerServices {
		a.Logger.Infof("Starting %s WorkerService", ws.GetServiceName())
		go func(ws rabbitmq.WorkerService) {
			if err := ws.StartService(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Errorf(err, "%s WorkerService stopped", ws.GetServiceName())
			}
		}(ws)
	}

	srv := &http.Server{Addr: a.Addr, Handler: a.Engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Infof("REST API is now listening on: %s", a.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if a.Conn != nil {
		_ = a.Conn.Close()
	}
	return err
}

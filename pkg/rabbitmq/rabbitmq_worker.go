package rabbitmq

import "context"

// WorkerService is a long running background job started with the application.
type WorkerService interface {
	GetServiceName() string
	StartService(ctx context.Context) error
}

package appbuilder

import (
	"fmt"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rest"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities"
)

type AppConfig interface {
	GetLoggerConfig() logger.LoggerConfig
	GetRabbitmqConfig() rabbitmq.RabbitmqConfig
	GetRestApiPort() uint16
}

type appBuilder[T utilities.JsonConfigObj[U], U AppConfig] struct {
	logger         *logger.Logger
	config         U
	conn           *amqp.Connection
	workerServices []rabbitmq.WorkerService
	routes         []rest.Route
	middlewares    []rest.Middleware
	engine         *gin.Engine
}

type AppBuilderInterface[T utilities.JsonConfigObj[U], U AppConfig] interface {
	InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U]
	LoadConfig(configPath string) AppBuilderInterface[T, U]
	InitRabbitmqConnection() AppBuilderInterface[T, U]
	InitRabbitmqRegistries() AppBuilderInterface[T, U]
	WithOption(option func(AppBuilderInterface[T, U])) AppBuilderInterface[T, U]
	AddWorkerServices(workerServices ...rabbitmq.WorkerService) AppBuilderInterface[T, U]
	AddMiddlewares(middlewares ...rest.Middleware) AppBuilderInterface[T, U]
	AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U]
	InitGinRouter() AppBuilderInterface[T, U]
	GetConfig() U
	GetLogger() *logger.Logger
	Build() ApplicationInterface
}

func New[T utilities.JsonConfigObj[U], U AppConfig]() AppBuilderInterface[T, U] {
	return &appBuilder[T, U]{}
}

func (a *appBuilder[T, U]) InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U] {
	logger.InitDefaultLogger(loggerArgs)
	a.logger = logger.Default()
	a.logger.Info("Logger initialized")

	return a
}

func (a *appBuilder[T, U]) LoadConfig(filePath string) AppBuilderInterface[T, U] {
	a.logger.Infof("Preparing to load config from %s ...", filePath)
	config, err := utilities.ReadConfig[T, U](filePath)
	if err != nil {
		a.logger.Error(err, "Failed to load config")
		panic(err)
	}

	a.config = config
	a.logger = a.logger.WithLevel(config.GetLoggerConfig().LogLevel).WithFormat(config.GetLoggerConfig().Format)
	a.logger.Info("Config successfully loaded.")
	return a
}

func (a *appBuilder[T, U]) InitRabbitmqConnection() AppBuilderInterface[T, U] {
	a.logger.Info("Preparing to connect to Rabbitmq server...")
	conn, err := rabbitmq.ConnectToRabbitmq(a.config.GetRabbitmqConfig())
	if err != nil {
		panic(err)
	}

	a.conn = conn
	a.logger.Info("Connection with Rabbitmq server established")

	return a
}

func (a *appBuilder[T, U]) InitRabbitmqRegistries() AppBuilderInterface[T, U] {
	a.logger.Info("Initializing Rabbitmq registries from config")
	rabbitmqConf := a.config.GetRabbitmqConfig()

	rabbitmq.InitializeConsumerRegistry(a.conn, rabbitmqConf.ConsumersConfig)
	rabbitmq.InitializePublisherRegistry(a.conn, rabbitmqConf.PublishersConfig)
	a.logger.Info("Successfully initialized Rabbitmq registries from config")

	return a
}

// WithOption runs option against the builder in chain order, after the
// steps before it have completed.
func (a *appBuilder[T, U]) WithOption(option func(AppBuilderInterface[T, U])) AppBuilderInterface[T, U] {
	option(a)
	return a
}

func (a *appBuilder[T, U]) AddWorkerServices(workerServices ...rabbitmq.WorkerService) AppBuilderInterface[T, U] {
	a.logger.Info("Adding Worker Services to Application...")
	a.workerServices = append(a.workerServices, workerServices...)
	return a
}

func (a *appBuilder[T, U]) AddMiddlewares(middlewares ...rest.Middleware) AppBuilderInterface[T, U] {
	a.middlewares = append(a.middlewares, middlewares...)
	return a
}

func (a *appBuilder[T, U]) AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U] {
	a.logger.Info("Adding Gin REST API routes to Application...")
	a.routes = append(a.routes, routes...)
	return a
}

func (a *appBuilder[T, U]) InitGinRouter() AppBuilderInterface[T, U] {
	a.logger.Info("Initializing Gin Router...")
	router := gin.New()
	router.Use(gin.Recovery(), rest.RequestLogger(a.logger))

	groups := map[string]*gin.RouterGroup{}
	group := func(name string) *gin.RouterGroup {
		if _, exists := groups[name]; !exists {
			groups[name] = router.Group("/" + name)
		}
		return groups[name]
	}

	for _, m := range a.middlewares {
		group(m.Group).Use(m.Handler)
	}

	a.logger.Info("Registering REST API routes...")
	for _, r := range a.routes {
		g := group(r.Group)
		switch r.Method {
		case rest.GET:
			g.GET(r.Path, r.HandlerFunc)
		case rest.POST:
			g.POST(r.Path, r.HandlerFunc)
		case rest.PUT:
			g.PUT(r.Path, r.HandlerFunc)
		case rest.PATCH:
			g.PATCH(r.Path, r.HandlerFunc)
		case rest.DELETE:
			g.DELETE(r.Path, r.HandlerFunc)
		default:
			a.logger.Warnf("Unrecognized HTTP method: %s", r.Method)
		}
	}

	a.engine = router
	a.logger.Info("Successfully registered REST API routes.")
	return a
}

func (a *appBuilder[T, U]) GetConfig() U { return a.config }

func (a *appBuilder[T, U]) GetLogger() *logger.Logger { return a.logger }

func (a *appBuilder[T, U]) Build() ApplicationInterface {
	return &Application{
		Logger:         a.logger,
		Addr:           fmt.Sprintf("0.0.0.0:%d", a.config.GetRestApiPort()),
		Conn:           a.conn,
		WorkerServices: a.workerServices,
		Engine:         a.engine,
	}
}

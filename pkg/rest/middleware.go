package rest

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
)

type Middleware struct {
	Handler gin.HandlerFunc
	Group   string
}

func NewMiddleware(group string, handler gin.HandlerFunc) Middleware {
	return Middleware{
		Group:   group,
		Handler: handler,
	}
}

// RequestLogger logs one line per request through l.
func RequestLogger(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Infof("%s %s -> %d (%s)", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

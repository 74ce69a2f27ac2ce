package middleware

import (
	"time"

	"clip-share/pkg/logger"

	"github.com/gin-gonic/gin"
)

func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log == nil {
			return
		}

		status := c.Writer.Status()
		latency := time.Since(start).String()
		reqLog := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			reqLog.Errorf("%s %s %d %s", method, path, status, latency)
		case status >= 400:
			reqLog.Warnf("%s %s %d %s", method, path, status, latency)
		default:
			reqLog.Infof("%s %s %d %s", method, path, status, latency)
		}
	}
}

// File: server/middleware.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Router middleware: request logging, panic recovery and CORS.

package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs one line per request once it completes.
// Upgraded connections are logged when their session ends.
func LoggingMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Debug("request")
	}
}

// RecoveryMiddleware turns handler panics into 500s.
func RecoveryMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("panic", recovered).Error("panic recovered in handler")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// CORSMiddleware applies the configured origin and method policy.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(cc.AllowMethods) == 0 {
		cc.AllowMethods = []string{http.MethodGet, http.MethodPost}
	}
	cc.AllowAllOrigins = len(cfg.AllowOrigins) == 0
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			cc.AllowAllOrigins = true
		}
	}
	if !cc.AllowAllOrigins {
		cc.AllowOrigins = cfg.AllowOrigins
	}
	return cors.New(cc)
}

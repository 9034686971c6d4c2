// File: server/routes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(RecoveryMiddleware(s.log), LoggingMiddleware(s.log), CORSMiddleware(s.cfg.CORS))

	r.GET("/", s.handleIndex)
	r.GET("/about", s.handleAbout)
	r.POST("/counter", s.handleCounter)
	r.POST("/sleep/:duration", s.handleSleep)
	r.GET("/headers", s.handleHeaders)
	r.POST("/headers", s.handleHeaders)
	r.GET("/ip", s.handleIP)
	r.GET("/stats", s.handleStats)
	r.GET("/ws", s.handleWS)
	return r
}

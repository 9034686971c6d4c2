// File: server/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/momentics/hioload-echo/api"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusOf(code api.ErrorCode) int {
	switch code {
	case api.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case api.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWith ends the request with the status matching err's code.
func (s *Server) abortWith(c *gin.Context, err error) {
	code := api.CodeOf(err)
	s.log.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"remote": c.Request.RemoteAddr,
		"code":   code.String(),
	}).WithError(err).Debug("request rejected")
	c.AbortWithStatusJSON(statusOf(code), errorResponse{Error: err.Error(), Code: code.String()})
}

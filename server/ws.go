// File: server/ws.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// GET /ws: upgrade and hand the connection to an echo session.

package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/internal/session"
)

func (s *Server) handleWS(c *gin.Context) {
	if !s.admit() {
		s.metrics.Add(control.MetricUpgradesRejected, 1)
		s.abortWith(c, api.NewError(api.ErrCodeUnavailable, api.ErrDraining))
		return
	}
	defer s.active.Done()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already answered with 4xx
		s.metrics.Add(control.MetricUpgradesRejected, 1)
		return
	}
	conn.SetReadLimit(s.cfg.Session.MaxMessageSize)

	sess := session.New(conn.RemoteAddr().String(), time.Now(), s.sessions.Config().IdleWindow)
	s.live.Add(session.InfoOf(sess))
	s.metrics.Add(control.MetricSessionsActive, 1)
	s.metrics.Add(control.MetricSessionsTotal, 1)
	s.log.WithFields(logrus.Fields{
		"session": sess.ID(),
		"remote":  sess.Remote(),
	}).Debug("session started")

	report := s.sessions.ServeSession(wsConn{conn}, sess)

	s.live.Delete(report.ID)
	s.record(report)
}

func (s *Server) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	s.log.WithFields(logrus.Fields{
		"remote": r.RemoteAddr,
		"status": status,
	}).WithError(reason).Debug("upgrade rejected")
	http.Error(w, http.StatusText(status), status)
}

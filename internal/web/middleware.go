package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/wpp-history/internal/session"
	"go.uber.org/zap"
)

const sessionKey = "session"

// withSession loads the session named by the cookie, creating one when the
// cookie is missing or unknown. The cookie has no Max-Age, so it lives as
// long as the browser session.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session
		if id, err := c.Cookie(s.opts.CookieName); err == nil {
			sess, _ = s.store.Get(id)
		}
		if sess == nil {
			sess = s.store.Create()
			if !s.viewer.RequiresCredential() {
				sess.AuthorizeWithoutCredential()
			}
			s.setCookie(c, sess.ID, 0)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.opts.CookieName, value, maxAge, "/", "", s.opts.SecureCookie, true)
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// accessLog logs one line per request. Query strings are left out since
// they may carry phone numbers.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status())
	}
}

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/server/auth"
	"github.com/speakfluent/speakfluent/internal/server/models"
)

// authedHandler receives the resolved account of the bearer token.
type authedHandler func(w http.ResponseWriter, r *http.Request, u *models.User)

// withAuth verifies the bearer token and resolves its subject to an account.
func (s *Server) withAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		username, err := auth.GetUsernameFromToken(token, s.secretKey)
		if err != nil {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		u, err := s.users.Resolve(r.Context(), username)
		if err != nil {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		next(w, r, u)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

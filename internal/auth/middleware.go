package auth

import (
	"net/http"
	"strings"

	apperrors "commonspace/pkg/errors"
	httputil "commonspace/pkg/http"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type Middleware struct {
	verifier *Verifier
	log      *logger.Logger
}

func NewMiddleware(verifier *Verifier, log *logger.Logger) *Middleware {
	return &Middleware{verifier: verifier, log: log}
}

// Authenticate rejects requests without a valid bearer token and stores the
// Principal in the request context.
func (m *Middleware) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			m.deny(w, apperrors.Unauthorized("missing bearer token"))
			return
		}

		principal, err := m.verifier.Verify(token)
		if err != nil {
			m.log.Debug("rejected token", "error", err)
			m.deny(w, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), principal)), ps)
	}
}

// Require authenticates and then checks the caller's role with allow.
func (m *Middleware) Require(allow func(model.Role) bool, next httprouter.Handle) httprouter.Handle {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		principal, _ := FromContext(r.Context())
		if !allow(principal.Role) {
			m.deny(w, apperrors.Forbidden("insufficient role"))
			return
		}
		next(w, r, ps)
	})
}

func (m *Middleware) deny(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		m.log.Error("failed to write error response", "handler", "auth", "operation", "WriteError", "error", writeErr)
	}
}

// CallerKey identifies the authenticated caller of r, or returns "" when the
// request carries no principal.
func CallerKey(r *http.Request) string {
	if p, ok := FromContext(r.Context()); ok {
		return p.UserID
	}
	return ""
}

package mockapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/waabox/constitutiongpt/internal/logctx"
)

// httpError is a handled failure rendered as {"detail": ...}.
type httpError struct {
	status int
	detail string
}

func (e *httpError) Error() string {
	return e.detail
}

func newHTTPError(status int, detail string) *httpError {
	return &httpError{status: status, detail: detail}
}

var (
	errInvalidToken        = newHTTPError(http.StatusUnauthorized, "Invalid token")
	errInvalidCredentials  = newHTTPError(http.StatusUnauthorized, "Invalid credentials")
	errInvalidRefreshToken = newHTTPError(http.StatusBadRequest, "invalid refresh token")
	errAdminRequired       = newHTTPError(http.StatusForbidden, "Admin access required")
	errLawyerRequired      = newHTTPError(http.StatusForbidden, "Lawyer access required")
	errUserExists          = newHTTPError(http.StatusBadRequest, "Username or email already exists")
	errWrongPassword       = newHTTPError(http.StatusBadRequest, "Incorrect current password")
	errBadRequest          = newHTTPError(http.StatusBadRequest, "Invalid request body")
)

func notFound(what string) *httpError {
	return newHTTPError(http.StatusNotFound, what+" not found")
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError renders err. Unhandled errors become a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var he *httpError
	if !errors.As(err, &he) {
		logctx.From(r.Context()).Error("request failed", slog.String("err", err.Error()))
		he = newHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	writeJSON(w, he.status, map[string]string{"detail": he.detail})
}

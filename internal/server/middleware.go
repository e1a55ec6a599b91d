package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/authz"
	"github.com/alfredjeanlab/datedvalues/internal/idgen"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// APIUser is the identity of callers holding the service token.
const APIUser = "api"

type requestIDKey struct{}

// RequestIDMiddleware assigns each request an ID, reusing a well-formed
// client-supplied one, and echoes it in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !idgen.ValidIncoming(id) {
			var err error
			if id, err = idgen.RequestID(); err != nil {
				id = "req-unknown"
			}
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := contextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID set by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// LoggingMiddleware logs method, path, status and duration of every request.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", RequestIDFromContext(r.Context()),
		}
		if u := authz.UserFromContext(r.Context()); u.Authenticated() {
			attrs = append(attrs, "user", u.Name)
		}
		if status >= http.StatusInternalServerError {
			logger.Error("http request", attrs...)
		} else {
			logger.Info("http request", attrs...)
		}
	})
}

// RecoveryMiddleware turns a panicking handler into a 500 response.
func RecoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				logger.Error("panic recovered in HTTP handler",
					"path", r.URL.Path,
					"panic", fmt.Sprintf("%v", rv),
					"stack", string(debug.Stack()),
					"request_id", RequestIDFromContext(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// IdentityMiddleware attaches the caller's authz.User to the request context.
// A bearer token equal to token authenticates as the staff user "api"; any
// other bearer token is rejected. When trustProxy is set, X-Forwarded-User and
// the comma-separated X-Forwarded-Groups identify the user. Otherwise the
// request is anonymous.
func IdentityMiddleware(token string, trustProxy bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var user authz.User

		if auth := r.Header.Get("Authorization"); auth != "" {
			if err := checkBearer(auth, token); err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			user = authz.User{Name: APIUser, Staff: true}
		} else if trustProxy {
			if name := strings.TrimSpace(r.Header.Get("X-Forwarded-User")); name != "" {
				user = authz.User{Name: name, Groups: splitList(r.Header.Get("X-Forwarded-Groups"))}
			}
		}

		next.ServeHTTP(w, r.WithContext(authz.WithUser(r.Context(), user)))
	})
}

var (
	errAuthScheme = errors.New("invalid authorization scheme")
	errAuthToken  = errors.New("invalid token")
)

// checkBearer verifies an Authorization header value against token. An
// empty token never matches.
func checkBearer(header, token string) error {
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return errAuthScheme
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		return errAuthToken
	}
	return nil
}

// RequireAccess admits requests whose user passes access. Denied requests
// are redirected to loginURL with a next parameter when one is configured;
// otherwise anonymous callers get 401 and authenticated ones 403.
func RequireAccess(access authz.AccessFunc, loginURL string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := authz.UserFromContext(r.Context())
		if access(user) {
			next.ServeHTTP(w, r)
			return
		}
		if loginURL != "" {
			http.Redirect(w, r, loginRedirect(loginURL, r.URL.RequestURI()), http.StatusFound)
			return
		}
		if !user.Authenticated() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		writeError(w, http.StatusForbidden, "access denied")
	})
}

func loginRedirect(loginURL, next string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

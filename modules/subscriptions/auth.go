package subscriptions

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/handler"
	"github.com/dmitrymomot/predictvip/pkg/jwt"
	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// RoleChecker reports whether a user holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

var callerKey = handler.NewContextKey("subscription_caller")

// CallerFromContext returns the caller resolved by Authenticate.
func CallerFromContext(ctx context.Context) (subscription.Caller, bool) {
	return handler.ContextValueOK[subscription.Caller](ctx, callerKey)
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller subscription.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// Authenticator resolves the bearer token into a subscription.Caller.
type Authenticator struct {
	tokens      *jwt.Service
	roles       RoleChecker
	superAdmins []string
	onError     handler.ErrorHandler
	logger      *slog.Logger
}

func NewAuthenticator(tokens *jwt.Service, roles RoleChecker, superAdmins []string, onError handler.ErrorHandler, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	if onError == nil {
		onError = handler.NewErrorHandler(log, classify)
	}
	admins := make([]string, 0, len(superAdmins))
	for _, e := range superAdmins {
		if e = subscription.NormalizeEmail(e); e != "" {
			admins = append(admins, e)
		}
	}
	return &Authenticator{
		tokens:      tokens,
		roles:       roles,
		superAdmins: admins,
		onError:     onError,
		logger:      log.With(logger.Component("admin_auth")),
	}
}

// Middleware rejects requests without a valid token with 401. Admin rights
// are resolved here and enforced by the admin service.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.resolve(r)
		if err != nil {
			a.onError(handler.NewContext(w, r), err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (a *Authenticator) resolve(r *http.Request) (subscription.Caller, error) {
	token, err := jwt.BearerToken(r)
	if err != nil {
		return subscription.Caller{}, handler.NewHTTPError(http.StatusUnauthorized, "unauthorized", err)
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return subscription.Caller{}, handler.NewHTTPError(http.StatusUnauthorized, "unauthorized", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return subscription.Caller{}, handler.NewHTTPError(http.StatusUnauthorized, "unauthorized", err)
	}

	caller := subscription.Caller{UserID: userID, Email: subscription.NormalizeEmail(claims.Email)}
	if caller.Email != "" && slices.Contains(a.superAdmins, caller.Email) {
		caller.Admin = true
		return caller, nil
	}
	if a.roles != nil {
		admin, err := a.roles.IsAdmin(r.Context(), userID)
		if err != nil {
			return subscription.Caller{}, err
		}
		caller.Admin = admin
	}
	return caller, nil
}

// SweepGuard protects the sweep trigger with a static bearer token. An empty
// token leaves the endpoint open, for deployments that restrict it at the edge.
func SweepGuard(token string, onError handler.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, err := jwt.BearerToken(r)
			if err != nil || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				onError(handler.NewContext(w, r), handler.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package subscriptions exposes the subscription engine over HTTP: the
// payment gateway webhook, the admin API and the sweep trigger.
package subscriptions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/predictvip/handler"
	"github.com/dmitrymomot/predictvip/pkg/binder"
	"github.com/dmitrymomot/predictvip/pkg/ratelimiter"
)

// RouterOptions configures the module. Admin routes are mounted only when
// Auth is set and the sweep trigger only when the service has a Sweeper.
// Limiter, when set, throttles the admin and sweep routes per client IP.
type RouterOptions struct {
	Service    Service
	Auth       *Authenticator
	SweepToken string
	Limiter    ratelimiter.RateLimiter
	Logger     *slog.Logger
}

// Router creates the module router.
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Mount("/", subscriptions.Router(subscriptions.RouterOptions{
//		Service: svc,
//		Auth:    subscriptions.NewAuthenticator(tokens, profiles, superAdmins, nil, log),
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	onError := handler.NewErrorHandler(log, classify)
	h := handlers{svc: opts.Service}

	throttle := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		throttle = ratelimiter.Middleware(opts.Limiter, ratelimiter.ByClientIP,
			ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
				onError(handler.NewContext(w, r), errRateLimited)
			}),
			ratelimiter.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				onError(handler.NewContext(w, r), err)
			}),
		)
	}

	r := chi.NewRouter()

	if opts.Service.Ingestor != nil {
		r.Post("/webhooks/paystack", handler.Wrap(h.paystackWebhook,
			handler.WithErrorHandler[struct{}](onError)))
	}

	if opts.Auth != nil && opts.Service.Admin != nil {
		r.Route("/admin/subscriptions", func(r chi.Router) {
			r.Use(throttle, opts.Auth.Middleware)

			r.Post("/", handler.Wrap(h.grant,
				handler.WithBinders[GrantRequest](binder.JSON()),
				handler.WithErrorHandler[GrantRequest](onError)))
			r.Post("/activate", handler.Wrap(h.activate,
				handler.WithBinders[ActivateRequest](binder.JSON()),
				handler.WithErrorHandler[ActivateRequest](onError)))
			r.Post("/bulk-activate", handler.Wrap(h.bulkActivate,
				handler.WithBinders[BulkActivateRequest](binder.JSON()),
				handler.WithErrorHandler[BulkActivateRequest](onError)))

			byID := func(fn handler.HandlerFunc[IDRequest]) http.HandlerFunc {
				return handler.Wrap(fn,
					handler.WithBinders[IDRequest](binder.Path(chi.URLParam)),
					handler.WithErrorHandler[IDRequest](onError))
			}
			r.Get("/{id}", byID(h.get))
			r.Post("/{id}/extend", byID(h.extend))
			r.Post("/{id}/expire", byID(h.expire))
			r.Post("/{id}/cancel", byID(h.cancel))
			r.Post("/{id}/link", handler.Wrap(h.link,
				handler.WithBinders[LinkRequest](binder.Path(chi.URLParam), binder.JSON()),
				handler.WithErrorHandler[LinkRequest](onError)))
		})
	}

	if opts.Service.Sweeper != nil {
		r.With(throttle, SweepGuard(opts.SweepToken, onError)).Post("/internal/sweep",
			handler.Wrap(h.sweep, handler.WithErrorHandler[struct{}](onError)))
	}

	return r
}

// Package logger builds *slog.Logger instances with functional options and a
// handler decorator that copies request-scoped values from context.Context
// into every record.
//
// Services call New once at start-up:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "predictvip"),
//	    logger.WithContextValueFunc("request_id", middleware.GetReqID),
//	)
//
// Attribute helpers in attr.go (Error, SubscriptionID, PlanType, ...) keep
// key names consistent across packages.
package logger

// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct populated by binders
// and returns a Response:
//
//	activate := func(ctx handler.Context, req ActivateRequest) handler.Response {
//		sub, err := svc.Activate(ctx, caller, req.ID)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(sub)
//	}
//
//	r.Post("/activate", handler.Wrap(activate,
//		handler.WithBinders[ActivateRequest](binder.JSON()),
//		handler.WithErrorHandler[ActivateRequest](errorHandler),
//	))
//
// Binding and rendering failures go to the configured ErrorHandler. Errors
// returned through JSONError are rendered with the status of the HTTPError
// they wrap, or classified by a Classifier.
package handler

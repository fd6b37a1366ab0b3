// Package binder decodes HTTP requests into typed request structs.
//
// Binders share the signature func(r *http.Request, v any) error and are
// applied in order by handler.Wrap:
//
//	handler.Wrap(activate,
//		handler.WithBinders[ActivateRequest](binder.JSON(), binder.Path(chi.URLParam)),
//	)
//
// JSON decodes a size-limited body strictly: unknown fields and trailing data
// are rejected and string fields are trimmed. Path fills fields tagged
// `path:"name"` from router parameters; values implementing
// encoding.TextUnmarshaler (uuid.UUID for example) are parsed with it.
// A binder that does not apply to the request returns ErrBinderNotApplicable.
package binder

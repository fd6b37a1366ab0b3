package binder

import "net/http"

// PathExtractor returns the router parameter named key; chi.URLParam fits.
type PathExtractor func(r *http.Request, key string) string

// Path binds fields tagged `path:"name"` from router parameters.
// Fields without a path tag are left alone.
func Path(extract PathExtractor) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extract == nil {
			return ErrBinderNotApplicable
		}
		names, err := taggedFields(v, "path", ErrFailedToParsePath)
		if err != nil {
			return err
		}

		values := make(map[string][]string, len(names))
		for _, name := range names {
			if val := extract(r, name); val != "" {
				values[name] = []string{val}
			}
		}
		if len(values) == 0 {
			return ErrBinderNotApplicable
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}

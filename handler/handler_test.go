package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/handler"
	"github.com/dmitrymomot/predictvip/pkg/binder"
	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/validator"
)

type echoRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := func(_ handler.Context, req echoRequest) handler.Response {
		if req.Name == "" {
			return handler.Fail(validator.Apply(validator.RequiredString("name", req.Name)))
		}
		return handler.JSON(map[string]string{"hello": req.Name}, handler.WithJSONStatus(http.StatusCreated))
	}
	errs := handler.NewErrorHandler(logger.Discard(), func(err error) handler.HTTPError {
		if validator.IsValidationError(err) {
			return handler.NewHTTPError(http.StatusBadRequest, "validation_error", err)
		}
		return handler.DefaultClassifier(err)
	})
	h := handler.Wrap(echo,
		handler.WithBinders[echoRequest](binder.JSON()),
		handler.WithErrorHandler[echoRequest](errs),
	)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		rec := post(h, `{"name":" vip "}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"data":{"hello":"vip"}}`, rec.Body.String())
	})

	t.Run("bind failure", func(t *testing.T) {
		t.Parallel()
		rec := post(h, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "bad_request", body.Error.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()
		rec := post(h, `{"name":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Contains(t, body.Error.Details, "name")
	})
}

func TestWrap_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
		rec := post(h, ``)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("internal errors are not exposed", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.Fail(errors.New("pq: password authentication failed"))
		}, handler.WithErrorHandler[struct{}](handler.NewErrorHandler(logger.Discard(), nil)))
		rec := post(h, ``)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.Equal(t, "internal_error", decode(t, rec).Error.Code)
	})

	t.Run("http errors keep their status", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
			return handler.Fail(handler.ErrForbidden)
		})
		rec := post(h, ``)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", decode(t, rec).Error.Code)
	})
}

func TestDecorators(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.RawJSON(map[string]string{"status": "ok"})
	}, handler.WithDecorators(mark("outer"), mark("inner")))

	rec := post(h, ``)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("caller")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := handler.NewContext(httptest.NewRecorder(), r)

	_, ok := handler.ContextValueOK[string](ctx, key)
	assert.False(t, ok)

	r = r.WithContext(contextWith(r, key, "admin"))
	ctx = handler.NewContext(httptest.NewRecorder(), r)
	assert.Equal(t, "admin", handler.ContextValue[string](ctx, key))
	assert.Equal(t, "caller", key.String())
}

func contextWith(r *http.Request, key, val any) context.Context {
	return context.WithValue(r.Context(), key, val)
}

package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/binder"
)

type grantRequest struct {
	ID       uuid.UUID `json:"-" path:"id"`
	Email    string    `json:"email"`
	PlanType string    `json:"plan_type"`
	Activate bool      `json:"activate"`
	Tags     []string  `json:"tags"`
}

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	bind := binder.JSON()

	t.Run("decodes and trims", func(t *testing.T) {
		t.Parallel()
		var req grantRequest
		err := bind(jsonRequest(`{"email":"  U@X.com ","plan_type":"1_month","activate":true,"tags":[" a "]}`), &req)
		require.NoError(t, err)
		assert.Equal(t, "U@X.com", req.Email)
		assert.Equal(t, "1_month", req.PlanType)
		assert.True(t, req.Activate)
		assert.Equal(t, []string{"a"}, req.Tags)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			body string
		}{
			{"unknown field", `{"email":"a@b.co","admin":true}`},
			{"trailing data", `{"email":"a@b.co"} {}`},
			{"syntax", `{"email":`},
			{"type mismatch", `{"activate":"yes"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				var req grantRequest
				assert.ErrorIs(t, bind(jsonRequest(tt.body), &req), binder.ErrFailedToParseJSON)
			})
		}
	})

	t.Run("content type", func(t *testing.T) {
		t.Parallel()
		r := jsonRequest(`{}`)
		r.Header.Set("Content-Type", "text/plain")
		assert.ErrorIs(t, bind(r, &grantRequest{}), binder.ErrUnsupportedMediaType)

		r = jsonRequest(`{}`)
		r.Header.Del("Content-Type")
		assert.ErrorIs(t, bind(r, &grantRequest{}), binder.ErrMissingContentType)
	})

	t.Run("empty body is not applicable", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		assert.ErrorIs(t, bind(r, &grantRequest{}), binder.ErrBinderNotApplicable)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		body := `{"email":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`
		assert.ErrorIs(t, bind(jsonRequest(body), &grantRequest{}), binder.ErrFailedToParseJSON)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	params := map[string]string{"id": id.String()}
	extract := func(_ *http.Request, key string) string { return params[key] }

	var req grantRequest
	require.NoError(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &req))
	assert.Equal(t, id, req.ID)
	assert.Empty(t, req.Email)

	bad := func(_ *http.Request, key string) string { return "not-a-uuid" }
	err := binder.Path(bad)(httptest.NewRequest(http.MethodGet, "/", nil), &grantRequest{})
	assert.ErrorIs(t, err, binder.ErrFailedToParsePath)

	none := func(*http.Request, string) string { return "" }
	err = binder.Path(none)(httptest.NewRequest(http.MethodGet, "/", nil), &grantRequest{})
	assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)

	var notStruct string
	err = binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &notStruct)
	assert.ErrorIs(t, err, binder.ErrFailedToParsePath)
}

package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

func TestParsePaystackEvent(t *testing.T) {
	t.Parallel()

	t.Run("charge with metadata object", func(t *testing.T) {
		t.Parallel()
		ev, err := subscription.ParsePaystackEvent([]byte(`{
			"event": "charge.success",
			"data": {
				"reference": "ref_123",
				"amount": 850000,
				"currency": "ngn",
				"customer": {"email": " U@X.com "},
				"metadata": {"plan_id": "1_month"},
				"plan": {}
			}
		}`))
		require.NoError(t, err)
		assert.Equal(t, &subscription.PaymentEvent{
			Type:      subscription.GatewayChargeSuccess,
			Reference: "ref_123",
			Email:     "u@x.com",
			Amount:    850000,
			Currency:  "NGN",
			PlanHint:  "1_month",
		}, ev)
	})

	t.Run("custom fields and plan object", func(t *testing.T) {
		t.Parallel()
		ev, err := subscription.ParsePaystackEvent([]byte(`{
			"event": "charge.success",
			"data": {
				"amount": "4500000",
				"customer": {"email": "a@b.co"},
				"metadata": {"custom_fields": [{"variable_name": "plan_type", "value": "6_months"}]},
				"plan": {"plan_code": "PLN_6_months", "name": "6 Months VIP"}
			}
		}`))
		require.NoError(t, err)
		assert.Equal(t, int64(4500000), ev.Amount)
		assert.Equal(t, "6_months", ev.PlanHint)
		assert.Equal(t, "PLN_6_months", ev.PlanCode)
	})

	t.Run("empty metadata and string plan", func(t *testing.T) {
		t.Parallel()
		ev, err := subscription.ParsePaystackEvent([]byte(`{
			"event": "subscription.disable",
			"data": {"metadata": "", "plan": "PLN_1_year", "customer": {"email": "a@b.co"}}
		}`))
		require.NoError(t, err)
		assert.Empty(t, ev.PlanHint)
		assert.Equal(t, "PLN_1_year", ev.PlanCode)
		assert.Zero(t, ev.Amount)
	})

	t.Run("email at data level", func(t *testing.T) {
		t.Parallel()
		ev, err := subscription.ParsePaystackEvent([]byte(`{"event":"charge.success","data":{"email":"Top@Level.io"}}`))
		require.NoError(t, err)
		assert.Equal(t, "top@level.io", ev.Email)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		for _, payload := range []string{`not json`, `{"data":{}}`, `{"event":"charge.success","data":{"amount":"lots"}}`} {
			_, err := subscription.ParsePaystackEvent([]byte(payload))
			assert.ErrorIs(t, err, subscription.ErrMalformedEvent, payload)
		}
	})
}

package subscription

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Gateway event names handled by the Ingestor.
const (
	GatewayChargeSuccess       = "charge.success"
	GatewaySubscriptionDisable = "subscription.disable"
	GatewaySubscriptionNoRenew = "subscription.not_renew"
)

// PaymentEvent is a gateway notification reduced to what reconciliation needs.
type PaymentEvent struct {
	Type      string
	Reference string
	Email     string
	Amount    int64
	Currency  string
	// PlanHint is the plan id the checkout put in the metadata.
	PlanHint string
	// PlanCode is the gateway's own plan code or name.
	PlanCode string
}

type paystackPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    json.Number     `json:"amount"`
		Currency  string          `json:"currency"`
		Email     string          `json:"email"`
		Customer  json.RawMessage `json:"customer"`
		Metadata  json.RawMessage `json:"metadata"`
		Plan      json.RawMessage `json:"plan"`
	} `json:"data"`
}

// ParsePaystackEvent decodes a Paystack webhook body.
func ParsePaystackEvent(payload []byte) (*PaymentEvent, error) {
	var p paystackPayload
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	if strings.TrimSpace(p.Event) == "" {
		return nil, fmt.Errorf("%w: event name is missing", ErrMalformedEvent)
	}

	ev := &PaymentEvent{
		Type:      strings.TrimSpace(p.Event),
		Reference: strings.TrimSpace(p.Data.Reference),
		Currency:  strings.ToUpper(p.Data.Currency),
		Email:     NormalizeEmail(p.Data.Email),
	}

	if p.Data.Amount != "" {
		amount, err := parseAmount(p.Data.Amount)
		if err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		ev.Amount = amount
	}

	if email := customerEmail(p.Data.Customer); email != "" {
		ev.Email = email
	}
	ev.PlanHint = metadataPlan(p.Data.Metadata)
	ev.PlanCode = gatewayPlan(p.Data.Plan)

	return ev, nil
}

// parseAmount accepts integer minor units; fractional values are rounded down.
func parseAmount(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", n, err)
	}
	return int64(f), nil
}

func customerEmail(raw json.RawMessage) string {
	var c struct {
		Email string `json:"email"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &c) != nil {
		return ""
	}
	return NormalizeEmail(c.Email)
}

// metadataPlan reads the plan id from checkout metadata: a top-level
// plan_id/plan_type/plan key, or a custom_fields entry with that variable name.
// Metadata that is not an object (Paystack sends "" or 0 when empty) is ignored.
func metadataPlan(raw json.RawMessage) string {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return ""
	}

	keys := []string{"plan_id", "plan_type", "plan"}
	for _, k := range keys {
		if v := scalarString(m[k]); v != "" {
			return v
		}
	}

	var fields []struct {
		VariableName string          `json:"variable_name"`
		Value        json.RawMessage `json:"value"`
	}
	if json.Unmarshal(m["custom_fields"], &fields) != nil {
		return ""
	}
	for _, k := range keys {
		for _, f := range fields {
			if f.VariableName == k {
				if v := scalarString(f.Value); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// gatewayPlan reads data.plan, which is an object, a bare plan code or empty.
func gatewayPlan(raw json.RawMessage) string {
	if v := scalarString(raw); v != "" {
		return v
	}
	var p struct {
		PlanCode string `json:"plan_code"`
		Name     string `json:"name"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil {
		return ""
	}
	if p.PlanCode != "" {
		return strings.TrimSpace(p.PlanCode)
	}
	return strings.TrimSpace(p.Name)
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

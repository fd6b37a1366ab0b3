package subscriptions

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/handler"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/validator"
	"github.com/dmitrymomot/predictvip/pkg/webhook"
)

// maxWebhookBody bounds the raw webhook payload read for verification.
const maxWebhookBody = 1 << 20

type (
	ActivateRequest struct {
		SubscriptionID uuid.UUID `json:"subscription_id"`
	}
	BulkActivateRequest struct {
		SubscriptionIDs []uuid.UUID `json:"subscription_ids"`
	}
	GrantRequest struct {
		Email    string `json:"email"`
		PlanType string `json:"plan_type"`
		Activate bool   `json:"activate"`
	}
	IDRequest struct {
		ID uuid.UUID `json:"-" path:"id"`
	}
	LinkRequest struct {
		ID     uuid.UUID `json:"-" path:"id"`
		UserID uuid.UUID `json:"user_id"`
	}
)

// Service is the subscription engine as seen by the HTTP layer.
type Service struct {
	Lifecycle *subscription.Lifecycle
	Ingestor  *subscription.Ingestor
	Admin     *subscription.AdminService
	Sweeper   *subscription.Sweeper
}

type handlers struct {
	svc Service
}

func (h handlers) view(ctx context.Context, sub *subscription.Subscription) SubscriptionResponse {
	return toResponse(sub, h.svc.Lifecycle.AllowedEvents(ctx, sub))
}

func (h handlers) caller(ctx handler.Context) (subscription.Caller, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return caller, handler.ErrUnauthorized
	}
	return caller, nil
}

// paystackWebhook reads the raw body itself: the signature covers the exact bytes.
func (h handlers) paystackWebhook(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		return handler.Fail(handler.NewHTTPError(http.StatusBadRequest, "bad_request", err))
	}
	if len(payload) > maxWebhookBody {
		return handler.Fail(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Errorf("webhook body exceeds %d bytes", maxWebhookBody)))
	}

	res, err := h.svc.Ingestor.HandleWebhook(ctx, payload, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		return handler.Fail(err)
	}
	return handler.RawJSON(WebhookAck{Status: "success", Message: res.Outcome.Message()})
}

func (h handlers) activate(ctx handler.Context, req ActivateRequest) handler.Response {
	return h.apply(ctx, req.SubscriptionID, h.svc.Admin.Activate)
}

func (h handlers) extend(ctx handler.Context, req IDRequest) handler.Response {
	return h.apply(ctx, req.ID, h.svc.Admin.Extend)
}

func (h handlers) expire(ctx handler.Context, req IDRequest) handler.Response {
	return h.apply(ctx, req.ID, h.svc.Admin.Expire)
}

func (h handlers) cancel(ctx handler.Context, req IDRequest) handler.Response {
	return h.apply(ctx, req.ID, h.svc.Admin.Cancel)
}

func (h handlers) get(ctx handler.Context, req IDRequest) handler.Response {
	return h.apply(ctx, req.ID, h.svc.Admin.Get)
}

type adminAction func(ctx context.Context, caller subscription.Caller, id uuid.UUID) (*subscription.Subscription, error)

func (h handlers) apply(ctx handler.Context, id uuid.UUID, action adminAction) handler.Response {
	caller, err := h.caller(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := validator.Apply(validator.RequiredUUID("subscription_id", id)); err != nil {
		return handler.Fail(err)
	}
	sub, err := action(ctx, caller, id)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(h.view(ctx, sub))
}

func (h handlers) bulkActivate(ctx handler.Context, req BulkActivateRequest) handler.Response {
	caller, err := h.caller(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	res, err := h.svc.Admin.BulkActivate(ctx, caller, req.SubscriptionIDs)
	if err != nil {
		return handler.Fail(err)
	}

	out := BulkResponse{Succeeded: res.Succeeded, Failed: res.Failed, Items: make([]BulkItemResponse, 0, len(res.Items))}
	for _, item := range res.Items {
		row := BulkItemResponse{ID: item.ID, OK: item.Err == nil}
		if item.Err != nil {
			row.Error = errorCode(item.Err)
		}
		if item.Subscription != nil {
			v := h.view(ctx, item.Subscription)
			row.Subscription = &v
		}
		out.Items = append(out.Items, row)
	}
	return handler.JSON(out)
}

func (h handlers) grant(ctx handler.Context, req GrantRequest) handler.Response {
	caller, err := h.caller(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	sub, err := h.svc.Admin.Grant(ctx, caller, subscription.GrantParams{
		Email:    req.Email,
		PlanType: req.PlanType,
		Activate: req.Activate,
	})
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(h.view(ctx, sub), handler.WithJSONStatus(http.StatusCreated))
}

func (h handlers) link(ctx handler.Context, req LinkRequest) handler.Response {
	caller, err := h.caller(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	sub, err := h.svc.Admin.Link(ctx, caller, req.ID, req.UserID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(h.view(ctx, sub))
}

func (h handlers) sweep(ctx handler.Context, _ struct{}) handler.Response {
	report, err := h.svc.Sweeper.Run(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.RawJSON(SweepResponse{
		WarningsSent: report.WarningsSent,
		Expired:      report.Expired,
		Linked:       report.Linked,
		Errors:       report.NotificationFailures,
	})
}

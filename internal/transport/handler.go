package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"click-merchant/internal/click"
	"click-merchant/internal/logger"
	"click-merchant/internal/metrics"
	"click-merchant/internal/payment"
	"click-merchant/internal/utils"

	"go.uber.org/zap"
)

const ServiceQueryParam = "service"

type operation func(ctx context.Context, svc *click.Payments, p click.Params) (any, error)

// Handler exposes the merchant endpoints over HTTP.
type Handler struct {
	registry  *click.Registry
	callbacks payment.Repository
	stats     *metrics.Callbacks
}

func NewHandler(registry *click.Registry, callbacks payment.Repository, stats *metrics.Callbacks) *Handler {
	if stats == nil {
		stats = metrics.NewCallbacks()
	}
	return &Handler{
		registry:  registry,
		callbacks: callbacks,
		stats:     stats,
	}
}

// Routes registers every merchant endpoint on mux. Anything else answers
// "Incorrect request".
func (h *Handler) Routes(mux *http.ServeMux) {
	routes := map[string]operation{
		"/prepare":                   h.prepare,
		"/complete":                  h.complete,
		"/payment":                   dispatch,
		"/invoice/create":            direct(click.KindInvoice),
		"/invoice/check":             direct(click.KindInvoiceCheck),
		"/payment/status":            direct(click.KindPaymentStatus),
		"/payment/merchant_trans_id": direct(click.KindMerchantTransID),
		"/payment/merchant_train_id": direct(click.KindMerchantTransID),
		"/cancel":                    direct(click.KindCancel),
		"/card/create":               direct(click.KindCardCreate),
		"/card/verify":               direct(click.KindCardVerify),
		"/card/payment":              direct(click.KindCardPayment),
		"/card/delete":               direct(click.KindCardDelete),
	}

	for path, op := range routes {
		mux.Handle("POST "+path, h.serve(op))
	}
	mux.HandleFunc("/", h.notFound)
}

func (h *Handler) serve(op operation) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		svc, err := h.registry.Get(r.URL.Query().Get(ServiceQueryParam))
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		ctx = logger.WithService(ctx, svc.Service())

		params, err := decodeParams(r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		out, err := op(ctx, svc, params)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		utils.WriteJSON(w, http.StatusOK, out)
	})
}

// Stats serves the callback counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.stats.Snapshot())
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(r.Context(), w, click.NewError(click.ErrMethodNotFound, "Incorrect request"))
}

func (h *Handler) prepare(ctx context.Context, svc *click.Payments, p click.Params) (any, error) {
	return h.logged(ctx, svc, p, svc.Prepare)
}

func (h *Handler) complete(ctx context.Context, svc *click.Payments, p click.Params) (any, error) {
	return h.logged(ctx, svc, p, svc.Complete)
}

// logged keeps an audit row around a callback. Audit failures are logged
// and never change the answer.
func (h *Handler) logged(
	ctx context.Context,
	svc *click.Payments,
	p click.Params,
	run func(context.Context, click.Params) (*click.CallbackResponse, error),
) (any, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("click_trans_id", p.String("click_trans_id")),
		zap.String("action", p.String("action")),
	)

	payload, err := json.Marshal(p)
	if err != nil {
		log.Debug("failed to encode click callback payload", zap.Error(err))
	}
	cb := &payment.Callback{
		Service:      svc.Service(),
		ClickTransID: p.String("click_trans_id"),
		Action:       p.String("action"),
		Payload:      payload,
	}

	timer := metrics.StartTimer()

	cbID, err := h.callbacks.SaveCallback(ctx, cb)
	if err != nil {
		log.Warn("failed to save click callback", zap.Error(err))
	}

	resp, err := run(ctx, p)
	if err != nil {
		h.stats.Fail()
		return nil, err
	}
	h.stats.Observe(callbackLabel(p), resp.Error, timer.Duration())

	log.Info("click callback handled",
		zap.Int("result", resp.Error),
		zap.String("merchant_trans_id", p.String("merchant_trans_id")),
		zap.Duration("duration", timer.Duration()),
	)

	if cbID != 0 {
		if err := h.callbacks.MarkCallbackProcessed(ctx, cbID, resp.Error); err != nil {
			log.Warn("failed to mark click callback processed", zap.Int64("callback_id", cbID), zap.Error(err))
		}
	}

	return resp, nil
}

// callbackLabel keeps the counter keys to a fixed set whatever the caller
// sends as action.
func callbackLabel(p click.Params) string {
	switch p.String("action") {
	case "0":
		return "prepare"
	case "1":
		return "complete"
	}
	return "other"
}

func dispatch(ctx context.Context, svc *click.Payments, p click.Params) (any, error) {
	return svc.Payment(ctx, p)
}

func direct(kind click.Kind) operation {
	return func(ctx context.Context, svc *click.Payments, p click.Params) (any, error) {
		req, err := click.RequestFor(kind, p)
		if err != nil {
			return nil, err
		}
		return svc.Run(ctx, req)
	}
}

// writeError is the single place failures are logged. Operational errors
// keep their code; anything else is reported as an internal error.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromCtx(ctx)

	if ce, ok := click.AsError(err); ok {
		log.Warn("click request rejected",
			zap.Int("error_code", ce.Code),
			zap.String("error_note", ce.Note),
		)
		utils.WriteJSONError(w, ce.Code, ce.Note)
		return
	}

	log.Error("click request failed", zap.Error(err))
	utils.WriteJSONError(w, click.ErrInternalSystem, "Internal system error")
}

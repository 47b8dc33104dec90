package click

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"click-merchant/internal/config"
	"click-merchant/internal/payment"

	"github.com/spf13/cast"
)

// Payments runs every merchant operation for one configured service. A
// Payments without a gateway refuses all operations.
type Payments struct {
	service  string
	creds    config.Service
	store    payment.Repository
	gateway  Gateway
	verifier *Verifier
}

func NewPayments(service string, creds config.Service, store payment.Repository, gateway Gateway) *Payments {
	return &Payments{
		service:  service,
		creds:    creds,
		store:    store,
		gateway:  gateway,
		verifier: NewVerifier(store, creds.SecretKey),
	}
}

// unconfigured is used when no service has credentials.
func unconfigured(store payment.Repository) *Payments {
	return &Payments{store: store}
}

func (s *Payments) Service() string { return s.service }

// Payment classifies a raw payload and runs the matching operation.
func (s *Payments) Payment(ctx context.Context, p Params) (any, error) {
	if err := s.ensureProvider(); err != nil {
		return nil, err
	}

	req, err := Classify(p)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errUndetectedMethod
	}

	return s.Run(ctx, req)
}

// Run executes an already classified request.
func (s *Payments) Run(ctx context.Context, req *Request) (any, error) {
	switch req.Kind {
	case KindPrepare:
		return s.Prepare(ctx, req.Params)
	case KindComplete:
		return s.Complete(ctx, req.Params)
	case KindInvoice:
		return s.CreateInvoice(ctx, req)
	case KindCardCreate:
		return s.CreateCardToken(ctx, req)
	case KindCardVerify:
		return s.VerifyCardToken(ctx, req)
	case KindCardPayment:
		return s.PayWithCardToken(ctx, req)
	case KindCardDelete:
		return s.DeleteCardToken(ctx, req)
	case KindInvoiceCheck:
		return s.CheckInvoice(ctx, req)
	case KindPaymentStatus:
		return s.CheckPayment(ctx, req)
	case KindMerchantTransID:
		return s.CheckByMerchantTransID(ctx, req)
	case KindCancel:
		return s.Cancel(ctx, req)
	}
	return nil, errUndetectedMethod
}

func (s *Payments) CreateInvoice(ctx context.Context, req *Request) (Reply, error) {
	rec, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if !rec.Status.Reenterable() {
		return inProcessing(), nil
	}

	mti, err := s.assignMerchantTransID(ctx, rec)
	if err != nil {
		return nil, err
	}

	reply, err := s.gateway.Send(ctx, http.MethodPost, "invoice/create", map[string]any{
		"service_id":        s.creds.ServiceID,
		"merchant_trans_id": mti,
		"phone_number":      req.PhoneNumber,
		"amount":            rec.Total.InexactFloat64(),
	})
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColStatus:      payment.StatusWaiting,
		payment.ColStatusNote:  reply.Note(),
		payment.ColInvoiceID:   reply.value("invoice_id"),
		payment.ColPhoneNumber: req.PhoneNumber,
	})
}

func (s *Payments) CheckInvoice(ctx context.Context, req *Request) (Reply, error) {
	rec, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if rec.InvoiceID == nil || *rec.InvoiceID != req.InvoiceID {
		return nil, errIncorrectInvoice
	}

	reply, err := s.gateway.Send(ctx, http.MethodGet, s.path("invoice/status", req.InvoiceID), nil)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, statusFields(reply))
}

func (s *Payments) CreateCardToken(ctx context.Context, req *Request) (Reply, error) {
	rec, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if !rec.Status.Reenterable() {
		return inProcessing(), nil
	}

	reply, err := s.gateway.Send(ctx, http.MethodPost, "card_token/request", map[string]any{
		"service_id":  s.creds.ServiceID,
		"card_number": req.CardNumber,
		"expire_date": req.ExpireDate,
		"temporary":   req.Temporary,
	})
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColStatus:      payment.StatusWaiting,
		payment.ColStatusNote:  reply.Note(),
		payment.ColCardToken:   reply.value("card_token"),
		payment.ColPhoneNumber: reply.value("phone_number"),
	})
}

func (s *Payments) VerifyCardToken(ctx context.Context, req *Request) (Reply, error) {
	rec, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if rec.Status != payment.StatusWaiting {
		return nil, errNotStable
	}

	var cardToken any
	if rec.CardToken != nil {
		cardToken = *rec.CardToken
	}

	reply, err := s.gateway.Send(ctx, http.MethodPost, "card_token/verify", map[string]any{
		"service_id": s.creds.ServiceID,
		"card_token": cardToken,
		"sms_code":   req.SMSCode,
	})
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColStatus:     payment.StatusConfirmed,
		payment.ColStatusNote: reply.Note(),
		payment.ColCardNumber: reply.value("card_number"),
	})
}

func (s *Payments) PayWithCardToken(ctx context.Context, req *Request) (Reply, error) {
	rec, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if !sameCardToken(rec, req.CardToken) {
		return nil, errIncorrectCardToken
	}

	mti, err := s.assignMerchantTransID(ctx, rec)
	if err != nil {
		return nil, err
	}

	reply, err := s.gateway.Send(ctx, http.MethodPost, "card_token/payment", map[string]any{
		"service_id":        s.creds.ServiceID,
		"card_token":        req.CardToken,
		"amount":            rec.Total.InexactFloat64(),
		"merchant_trans_id": mti,
	})
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColStatus:     payment.StatusConfirmed,
		payment.ColStatusNote: reply.Note(),
		payment.ColPaymentID:  reply.value("payment_id"),
	})
}

func (s *Payments) DeleteCardToken(ctx context.Context, req *Request) (Reply, error) {
	rec, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if !sameCardToken(rec, req.CardToken) {
		return nil, errIncorrectCardToken
	}

	reply, err := s.gateway.Send(ctx, http.MethodDelete, s.path("card_token", req.CardToken), nil)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColCardToken:  nil,
		payment.ColStatusNote: reply.Note(),
	})
}

// CheckPayment needs no stored record; the token only addresses the update.
func (s *Payments) CheckPayment(ctx context.Context, req *Request) (Reply, error) {
	if err := s.preconditions(req); err != nil {
		return nil, err
	}

	reply, err := s.gateway.Send(ctx, http.MethodGet, s.path("payment/status", req.PaymentID), nil)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, statusFields(reply))
}

func (s *Payments) CheckByMerchantTransID(ctx context.Context, req *Request) (Reply, error) {
	if err := s.preconditions(req); err != nil {
		return nil, err
	}

	reply, err := s.gateway.Send(ctx, http.MethodGet, s.path("payment/status_by_mti", req.MerchantTransID), nil)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColPaymentID:       reply.value("payment_id"),
		payment.ColMerchantTransID: reply.value("merchant_trans_id"),
		payment.ColStatusNote:      reply.Note(),
	})
}

func (s *Payments) Cancel(ctx context.Context, req *Request) (Reply, error) {
	if err := s.preconditions(req); err != nil {
		return nil, err
	}

	reply, err := s.gateway.Send(ctx, http.MethodDelete, s.path("payment/reversal", req.PaymentID), nil)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, req.Token, reply, payment.Fields{
		payment.ColStatus:     payment.StatusRejected,
		payment.ColStatusNote: reply.Note(),
		payment.ColPaymentID:  reply.value("payment_id"),
	})
}

func (s *Payments) ensureProvider() error {
	if s.gateway == nil {
		return errNoProvider
	}
	return nil
}

func (s *Payments) preconditions(req *Request) error {
	if err := s.ensureProvider(); err != nil {
		return err
	}
	if req.Token == "" {
		return errNoToken
	}
	return nil
}

// begin checks preconditions and loads the record addressed by token.
func (s *Payments) begin(ctx context.Context, req *Request) (*payment.Payment, error) {
	if err := s.preconditions(req); err != nil {
		return nil, err
	}

	rec, err := s.store.FindByToken(ctx, req.Token)
	if errors.Is(err, payment.ErrPaymentNotFound) {
		return nil, errTransactionMissing
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// assignMerchantTransID returns the record's merchant_trans_id, setting it
// to the record id on first use.
func (s *Payments) assignMerchantTransID(ctx context.Context, rec *payment.Payment) (string, error) {
	if rec.MerchantTransID != nil && *rec.MerchantTransID != "" {
		return *rec.MerchantTransID, nil
	}

	mti := strconv.FormatInt(rec.ID, 10)
	if _, err := s.store.UpdateByID(ctx, rec.ID, payment.Fields{payment.ColMerchantTransID: mti}); err != nil {
		return "", fmt.Errorf("assign merchant_trans_id: %w", err)
	}
	rec.MerchantTransID = &mti
	return mti, nil
}

// apply writes the success mapping when error_code is 0, otherwise marks
// the record as errored with the gateway's note.
func (s *Payments) apply(ctx context.Context, token string, reply Reply, success payment.Fields) (Reply, error) {
	fields := success
	if reply.ErrorCode() != 0 {
		fields = payment.Fields{
			payment.ColStatus:     payment.StatusError,
			payment.ColStatusNote: reply.Note(),
		}
	}

	if _, err := s.store.UpdateByToken(ctx, token, fields); err != nil {
		return nil, fmt.Errorf("update payment after click reply: %w", err)
	}
	return reply, nil
}

func (s *Payments) path(prefix, id string) string {
	return prefix + "/" + url.PathEscape(s.creds.ServiceID) + "/" + url.PathEscape(id)
}

// statusFields maps a status reply: positive is paid, -99 is cancelled,
// anything else is an error.
func statusFields(reply Reply) payment.Fields {
	fields := payment.Fields{payment.ColStatusNote: reply.Note()}

	switch status := cast.ToInt(reply["status"]); {
	case status > 0:
		fields[payment.ColStatus] = payment.StatusConfirmed
	case status == -99:
		fields[payment.ColStatus] = payment.StatusRejected
	default:
		fields[payment.ColStatus] = payment.StatusError
	}
	return fields
}

func sameCardToken(rec *payment.Payment, cardToken string) bool {
	return rec.CardToken != nil && *rec.CardToken == cardToken
}

func inProcessing() Reply {
	return Reply{"error_code": CodePaymentInProcessing, "error_note": "Payment in processing"}
}

package click

import (
	"context"
	"errors"
	"fmt"

	"click-merchant/internal/payment"
)

// CallbackResponse is the body returned to the gateway for prepare and
// complete. The identifier fields are absent only on a forced cancel.
type CallbackResponse struct {
	Result
	ClickTransID      string `json:"click_trans_id,omitempty"`
	MerchantTransID   string `json:"merchant_trans_id,omitempty"`
	MerchantConfirmID *int64 `json:"merchant_confirm_id,omitempty"`
	MerchantPrepareID *int64 `json:"merchant_prepare_id,omitempty"`
}

// Prepare reserves the transaction: a verified callback moves the record
// to waiting.
func (s *Payments) Prepare(ctx context.Context, p Params) (*CallbackResponse, error) {
	rec, res, err := s.verifyCallback(ctx, p)
	if err != nil {
		return nil, err
	}

	if res.OK() && rec != nil {
		if err := s.setStatus(ctx, rec.ID, payment.StatusWaiting); err != nil {
			return nil, err
		}
	}

	return callbackResponse(p, res, rec), nil
}

// Complete finalizes or cancels a prepared transaction. A negative error
// reported by the gateway rejects the record unless it is already paid or
// cancelled.
func (s *Payments) Complete(ctx context.Context, p Params) (*CallbackResponse, error) {
	rec, res, err := s.verifyCallback(ctx, p)
	if err != nil {
		return nil, err
	}

	if p.Int("error") < 0 && res.Error != CodeAlreadyPaid && res.Error != CodeCancelled && rec != nil {
		if err := s.setStatus(ctx, rec.ID, payment.StatusRejected); err != nil {
			return nil, err
		}
		return &CallbackResponse{Result: resultCancelled}, nil
	}

	if res.OK() && rec != nil {
		if err := s.setStatus(ctx, rec.ID, payment.StatusConfirmed); err != nil {
			return nil, err
		}
	}

	return callbackResponse(p, res, rec), nil
}

// verifyCallback loads the record named by merchant_trans_id, if any, and
// runs the verifier.
func (s *Payments) verifyCallback(ctx context.Context, p Params) (*payment.Payment, Result, error) {
	if s.verifier == nil {
		return nil, Result{}, errNoProvider
	}

	rec, err := s.store.FindByMerchantTransID(ctx, p.String("merchant_trans_id"))
	if errors.Is(err, payment.ErrPaymentNotFound) {
		rec = nil
	} else if err != nil {
		return nil, Result{}, err
	}

	res, err := s.verifier.Check(ctx, p)
	if err != nil {
		return nil, Result{}, err
	}

	return rec, res, nil
}

func (s *Payments) setStatus(ctx context.Context, id int64, status payment.Status) error {
	if _, err := s.store.UpdateByID(ctx, id, payment.Fields{payment.ColStatus: status}); err != nil {
		return fmt.Errorf("set payment %d to %s: %w", id, status, err)
	}
	return nil
}

func callbackResponse(p Params, res Result, rec *payment.Payment) *CallbackResponse {
	var id int64
	if rec != nil {
		id = rec.ID
	}
	confirmID, prepareID := id, id

	return &CallbackResponse{
		Result:            res,
		ClickTransID:      p.String("click_trans_id"),
		MerchantTransID:   p.String("merchant_trans_id"),
		MerchantConfirmID: &confirmID,
		MerchantPrepareID: &prepareID,
	}
}

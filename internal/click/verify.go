package click

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"

	"click-merchant/internal/payment"

	"github.com/shopspring/decimal"
)

// Protocol result codes returned inside {error, error_note}.
const (
	CodeSuccess             = 0
	CodeSignFailed          = -1
	CodeIncorrectAmount     = -2
	CodeActionNotFound      = -3
	CodeAlreadyPaid         = -4
	CodeUserNotFound        = -5
	CodeTransactionNotFound = -6
	CodeBadRequest          = -8
	CodeCancelled           = -9
)

const (
	ActionPrepare  = 0
	ActionComplete = 1
)

var amountTolerance = decimal.RequireFromString("0.01")

// Result is a protocol verification outcome. It is a value, never an error:
// the gateway expects a well-formed body even when verification fails.
type Result struct {
	Error     int    `json:"error"`
	ErrorNote string `json:"error_note"`
}

func (r Result) OK() bool { return r.Error == CodeSuccess }

var (
	resultSuccess             = Result{CodeSuccess, "Success"}
	resultSignFailed          = Result{CodeSignFailed, "SIGN CHECK FAILED!"}
	resultIncorrectAmount     = Result{CodeIncorrectAmount, "Incorrect parameter amount"}
	resultActionNotFound      = Result{CodeActionNotFound, "Action not found"}
	resultAlreadyPaid         = Result{CodeAlreadyPaid, "Already paid"}
	resultUserNotFound        = Result{CodeUserNotFound, "User does not exist"}
	resultTransactionNotFound = Result{CodeTransactionNotFound, "Transaction does not exist"}
	resultBadRequest          = Result{CodeBadRequest, "Error in request from click"}
	resultCancelled           = Result{CodeCancelled, "Transaction cancelled"}
)

var requiredCallbackFields = []string{
	"click_trans_id",
	"service_id",
	"merchant_trans_id",
	"amount",
	"action",
	"error",
	"error_note",
	"sign_time",
	"sign_string",
	"click_paydoc_id",
}

// Finder is the read side of the payment store the verifier needs.
type Finder interface {
	FindByID(ctx context.Context, id int64) (*payment.Payment, error)
	FindByMerchantTransID(ctx context.Context, merchantTransID string) (*payment.Payment, error)
}

// Verifier checks authenticity and consistency of prepare/complete
// callbacks against one service's secret key.
type Verifier struct {
	store     Finder
	secretKey string
}

func NewVerifier(store Finder, secretKey string) *Verifier {
	return &Verifier{store: store, secretKey: secretKey}
}

// Check runs the validation steps in order and stops at the first
// failure. The returned error is reserved for store failures.
func (v *Verifier) Check(ctx context.Context, p Params) (Result, error) {
	if !complete(p) {
		return resultBadRequest, nil
	}

	if Sign(p, v.secretKey) != p.String("sign_string") {
		return resultSignFailed, nil
	}

	action := p.Int("action")
	if action != ActionPrepare && action != ActionComplete {
		return resultActionNotFound, nil
	}

	rec, err := v.store.FindByMerchantTransID(ctx, p.String("merchant_trans_id"))
	if errors.Is(err, payment.ErrPaymentNotFound) {
		return resultUserNotFound, nil
	}
	if err != nil {
		return Result{}, err
	}

	if action == ActionComplete {
		rec, err = v.store.FindByID(ctx, p.Int64("merchant_prepare_id"))
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return resultTransactionNotFound, nil
		}
		if err != nil {
			return Result{}, err
		}
	}

	if rec.Status == payment.StatusConfirmed {
		return resultAlreadyPaid, nil
	}

	if !amountMatches(p.String("amount"), rec.Total) {
		return resultIncorrectAmount, nil
	}

	if rec.Status == payment.StatusRejected {
		return resultCancelled, nil
	}

	return resultSuccess, nil
}

// Sign computes the callback signature: md5 over click_trans_id,
// service_id, secret, merchant_trans_id, merchant_prepare_id (complete
// only), amount, action and sign_time.
func Sign(p Params, secretKey string) string {
	prepareID := ""
	if p.Int("action") == ActionComplete {
		prepareID = p.String("merchant_prepare_id")
	}

	sum := md5.Sum([]byte(
		p.String("click_trans_id") +
			p.String("service_id") +
			secretKey +
			p.String("merchant_trans_id") +
			prepareID +
			p.String("amount") +
			p.String("action") +
			p.String("sign_time"),
	))
	return hex.EncodeToString(sum[:])
}

func complete(p Params) bool {
	for _, key := range requiredCallbackFields {
		if !p.Has(key) {
			return false
		}
	}
	return p.Int("action") != ActionComplete || p.Has("merchant_prepare_id")
}

// amountMatches allows a difference of at most 0.01. Unparseable amounts
// read as zero.
func amountMatches(raw string, total decimal.Decimal) bool {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		amount = decimal.Zero
	}
	return !total.Sub(amount).Abs().GreaterThan(amountTolerance)
}

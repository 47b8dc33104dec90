package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInput     Status = "input"
	StatusWaiting   Status = "waiting"
	StatusPreauth   Status = "preauth"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusRefunded  Status = "refunded"
	StatusError     Status = "error"
)

// Reenterable reports whether a new invoice or card token may be started
// from this status.
func (s Status) Reenterable() bool {
	return s == StatusInput || s == StatusRefunded
}

// Payment is one row of the payments table. Nullable columns are pointers;
// a record is not guaranteed to carry a merchant_trans_id.
type Payment struct {
	ID              int64
	Token           string
	MerchantTransID *string
	Total           decimal.Decimal
	Status          Status
	StatusNote      *string
	InvoiceID       *string
	CardToken       *string
	PhoneNumber     *string
	CardNumber      *string
	PaymentID       *string
	ExpireDate      *string
	Modified        *time.Time
}

// Column names accepted by Repository updates.
const (
	ColMerchantTransID = "merchant_trans_id"
	ColStatus          = "status"
	ColStatusNote      = "status_note"
	ColInvoiceID       = "invoice_id"
	ColCardToken       = "card_token"
	ColPhoneNumber     = "phone_number"
	ColCardNumber      = "card_number"
	ColPaymentID       = "payment_id"
	ColExpireDate      = "expire_date"
)

// Fields is a partial update keyed by column name. A nil value writes NULL.
type Fields map[string]any

// Callback is the audit row kept for every inbound prepare/complete call.
type Callback struct {
	ID           int64
	Service      string
	ClickTransID string
	Action       string
	Payload      json.RawMessage
	ResultCode   *int
	ProcessedAt  *time.Time
}

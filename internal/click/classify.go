package click

// Kind tags a classified merchant request.
type Kind string

const (
	KindPrepare         Kind = "prepare"
	KindComplete        Kind = "complete"
	KindInvoice         Kind = "phone_number"
	KindCardCreate      Kind = "card_number"
	KindCardVerify      Kind = "sms_code"
	KindCardPayment     Kind = "card_token"
	KindCardDelete      Kind = "delete_card_token"
	KindInvoiceCheck    Kind = "check_invoice_id"
	KindPaymentStatus   Kind = "check_payment"
	KindMerchantTransID Kind = "merchant_trans_id"
	KindCancel          Kind = "cancel"
)

// Request is the typed form of an inbound merchant payload. Only the
// fields relevant to Kind are set.
type Request struct {
	Kind            Kind
	Token           string
	PhoneNumber     string
	CardNumber      string
	ExpireDate      any
	Temporary       int
	SMSCode         string
	CardToken       string
	InvoiceID       string
	PaymentID       string
	MerchantTransID string
	// Params is the raw payload, kept for prepare/complete.
	Params Params
}

type rule struct {
	key   string
	build func(Params) (*Request, error)
}

// rules are evaluated in order; the first present key wins.
var rules = []rule{
	{"action", func(p Params) (*Request, error) {
		kind := KindComplete
		if p.Int("action") == ActionPrepare {
			kind = KindPrepare
		}
		return &Request{Kind: kind, Params: p}, nil
	}},
	{"phone_number", func(p Params) (*Request, error) {
		phone, ok := NormalizePhone(p.String("phone_number"))
		if !ok {
			return nil, errIncorrectPhone
		}
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindInvoice, Token: token, PhoneNumber: phone}, nil
	}},
	{"card_number", func(p Params) (*Request, error) {
		card, ok := NormalizeCard(p.String("card_number"))
		if !ok {
			return nil, errIncorrectCard
		}
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{
			Kind:       KindCardCreate,
			Token:      token,
			CardNumber: card,
			ExpireDate: p["expire_date"],
			Temporary:  temporary(p),
		}, nil
	}},
	{"sms_code", func(p Params) (*Request, error) {
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindCardVerify, Token: token, SMSCode: p.String("sms_code")}, nil
	}},
	{"card_token", func(p Params) (*Request, error) {
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindCardPayment, Token: token, CardToken: p.String("card_token")}, nil
	}},
	{"delete_card_token", func(p Params) (*Request, error) {
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindCardDelete, Token: token, CardToken: p.String("delete_card_token")}, nil
	}},
	{"check_invoice_id", func(p Params) (*Request, error) {
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindInvoiceCheck, Token: token, InvoiceID: p.String("check_invoice_id")}, nil
	}},
	{"payment_id", func(p Params) (*Request, error) {
		return &Request{Kind: KindPaymentStatus, Token: p.String("token"), PaymentID: p.String("payment_id")}, nil
	}},
	{"merchant_trans_id", func(p Params) (*Request, error) {
		token, err := requireToken(p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindMerchantTransID, Token: token, MerchantTransID: p.String("merchant_trans_id")}, nil
	}},
	{"cancel_payment_id", func(p Params) (*Request, error) {
		return &Request{Kind: KindCancel, Token: p.String("token"), PaymentID: p.String("cancel_payment_id")}, nil
	}},
}

// Classify picks the request type by key presence. It returns nil, nil
// when no key matches.
func Classify(p Params) (*Request, error) {
	for _, r := range rules {
		if p.Filled(r.key) {
			return r.build(p)
		}
	}
	return nil, nil
}

// RequestFor builds a request of a known kind from a dedicated endpoint's
// payload. Unlike Classify it reads the plain field names (card_token,
// invoice_id, payment_id) and leaves token checks to the operation.
func RequestFor(kind Kind, p Params) (*Request, error) {
	req := &Request{Kind: kind, Token: p.String("token"), Params: p}

	switch kind {
	case KindInvoice:
		phone, ok := NormalizePhone(p.String("phone_number"))
		if !ok {
			return nil, errIncorrectPhone
		}
		req.PhoneNumber = phone
	case KindCardCreate:
		card, ok := NormalizeCard(p.String("card_number"))
		if !ok {
			return nil, errIncorrectCard
		}
		req.CardNumber = card
		req.ExpireDate = p["expire_date"]
		req.Temporary = temporary(p)
	case KindCardVerify:
		req.SMSCode = p.String("sms_code")
	case KindCardPayment, KindCardDelete:
		req.CardToken = p.String("card_token")
	case KindInvoiceCheck:
		req.InvoiceID = p.String("invoice_id")
	case KindPaymentStatus, KindCancel:
		req.PaymentID = p.String("payment_id")
	case KindMerchantTransID:
		req.MerchantTransID = p.String("merchant_trans_id")
	}

	return req, nil
}

func requireToken(p Params) (string, error) {
	if !p.Filled("token") {
		return "", errNoToken
	}
	return p.String("token"), nil
}

func temporary(p Params) int {
	if p.Filled("temporary") {
		return p.Int("temporary")
	}
	return 1
}

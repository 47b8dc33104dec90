package click

import (
	"context"

	"click-merchant/internal/config"
	"click-merchant/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockRepository) FindByToken(ctx context.Context, token string) (*payment.Payment, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockRepository) FindByMerchantTransID(ctx context.Context, merchantTransID string) (*payment.Payment, error) {
	args := m.Called(ctx, merchantTransID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockRepository) UpdateByID(ctx context.Context, id int64, fields payment.Fields) (int64, error) {
	args := m.Called(ctx, id, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) UpdateByToken(ctx context.Context, token string, fields payment.Fields) (int64, error) {
	args := m.Called(ctx, token, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SaveCallback(ctx context.Context, cb *payment.Callback) (int64, error) {
	args := m.Called(ctx, cb)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) MarkCallbackProcessed(ctx context.Context, callbackID int64, resultCode int) error {
	args := m.Called(ctx, callbackID, resultCode)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Send(ctx context.Context, method, path string, body any) (Reply, error) {
	args := m.Called(ctx, method, path, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Reply), args.Error(1)
}

// --- Fixtures ---

const testSecret = "s3cr3t"

var testCreds = config.Service{
	MerchantID: "100",
	ServiceID:  "22",
	UserID:     "300",
	SecretKey:  testSecret,
}

func newTestPayments() (*Payments, *MockRepository, *MockGateway) {
	repo := new(MockRepository)
	gw := new(MockGateway)
	return NewPayments("default", testCreds, repo, gw), repo, gw
}

func record(id int64, total int64, status payment.Status) *payment.Payment {
	return &payment.Payment{
		ID:     id,
		Token:  "tok",
		Total:  decimal.NewFromInt(total),
		Status: status,
	}
}

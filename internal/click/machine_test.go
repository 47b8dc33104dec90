package click

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"click-merchant/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPayments_Prepare(t *testing.T) {
	ctx := context.Background()

	t.Run("Success moves record to waiting", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(record(7, 1000, payment.StatusInput), nil)
		repo.On("UpdateByID", mock.Anything, int64(7), payment.Fields{payment.ColStatus: payment.StatusWaiting}).
			Return(int64(1), nil).Once()

		resp, err := svc.Prepare(ctx, callbackParams(ActionPrepare, "1000"))
		require.NoError(t, err)

		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"error": 0,
			"error_note": "Success",
			"click_trans_id": "111",
			"merchant_trans_id": "7",
			"merchant_confirm_id": 7,
			"merchant_prepare_id": 7
		}`, string(raw))
		repo.AssertExpectations(t)
	})

	t.Run("Unknown record reports zero ids", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(nil, payment.ErrPaymentNotFound)

		resp, err := svc.Prepare(ctx, callbackParams(ActionPrepare, "1000"))
		require.NoError(t, err)
		assert.Equal(t, CodeUserNotFound, resp.Error)
		assert.Equal(t, int64(0), *resp.MerchantConfirmID)
		assert.Equal(t, int64(0), *resp.MerchantPrepareID)
		repo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed verification leaves status", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(record(7, 1000, payment.StatusInput), nil)

		resp, err := svc.Prepare(ctx, callbackParams(ActionPrepare, "999"))
		require.NoError(t, err)
		assert.Equal(t, CodeIncorrectAmount, resp.Error)
		assert.Equal(t, int64(7), *resp.MerchantPrepareID)
		repo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Store failure", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(record(7, 1000, payment.StatusInput), nil)
		repo.On("UpdateByID", mock.Anything, int64(7), mock.Anything).Return(int64(0), errors.New("db down"))

		_, err := svc.Prepare(ctx, callbackParams(ActionPrepare, "1000"))
		assert.Error(t, err)
	})

	t.Run("Without provider", func(t *testing.T) {
		_, err := unconfigured(new(MockRepository)).Prepare(ctx, callbackParams(ActionPrepare, "1000"))
		assert.Equal(t, errNoProvider, err)
	})
}

func TestPayments_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success confirms record", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		rec := record(7, 1000, payment.StatusWaiting)
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(rec, nil)
		repo.On("FindByID", mock.Anything, int64(7)).Return(rec, nil)
		repo.On("UpdateByID", mock.Anything, int64(7), payment.Fields{payment.ColStatus: payment.StatusConfirmed}).
			Return(int64(1), nil).Once()

		resp, err := svc.Complete(ctx, callbackParams(ActionComplete, "1000"))
		require.NoError(t, err)
		assert.True(t, resp.OK())
		assert.Equal(t, "111", resp.ClickTransID)
		repo.AssertExpectations(t)
	})

	t.Run("Gateway failure cancels waiting record", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		rec := record(7, 1000, payment.StatusWaiting)
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(rec, nil)
		repo.On("FindByID", mock.Anything, int64(7)).Return(rec, nil)
		repo.On("UpdateByID", mock.Anything, int64(7), payment.Fields{payment.ColStatus: payment.StatusRejected}).
			Return(int64(1), nil).Once()

		p := callbackParams(ActionComplete, "1000")
		p["error"] = "-1"
		p["error_note"] = "Insufficient funds"

		resp, err := svc.Complete(ctx, p)
		require.NoError(t, err)

		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error": -9, "error_note": "Transaction cancelled"}`, string(raw))
		repo.AssertExpectations(t)
	})

	t.Run("Gateway failure on cancelled record is a no-op", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		rec := record(7, 1000, payment.StatusRejected)
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(rec, nil)
		repo.On("FindByID", mock.Anything, int64(7)).Return(rec, nil)

		p := callbackParams(ActionComplete, "1000")
		p["error"] = -5017

		resp, err := svc.Complete(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, CodeCancelled, resp.Error)
		assert.NotNil(t, resp.MerchantConfirmID)
		repo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Replay on confirmed record", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		rec := record(7, 1000, payment.StatusConfirmed)
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(rec, nil)
		repo.On("FindByID", mock.Anything, int64(7)).Return(rec, nil)

		for i := 0; i < 2; i++ {
			resp, err := svc.Complete(ctx, callbackParams(ActionComplete, "1000"))
			require.NoError(t, err)
			assert.Equal(t, Result{-4, "Already paid"}, resp.Result)
		}
		repo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Gateway failure without record", func(t *testing.T) {
		svc, repo, _ := newTestPayments()
		repo.On("FindByMerchantTransID", mock.Anything, "7").Return(nil, payment.ErrPaymentNotFound)

		p := callbackParams(ActionComplete, "1000")
		p["error"] = "-1"

		resp, err := svc.Complete(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, CodeUserNotFound, resp.Error)
		repo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	})
}

package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"click-merchant/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Payment, error)
	FindByToken(ctx context.Context, token string) (*Payment, error)
	FindByMerchantTransID(ctx context.Context, merchantTransID string) (*Payment, error)

	UpdateByID(ctx context.Context, id int64, fields Fields) (int64, error)
	UpdateByToken(ctx context.Context, token string, fields Fields) (int64, error)

	SaveCallback(ctx context.Context, cb *Callback) (int64, error)
	MarkCallbackProcessed(ctx context.Context, callbackID int64, resultCode int) error
}

var updatableColumns = map[string]bool{
	ColMerchantTransID: true,
	ColStatus:          true,
	ColStatusNote:      true,
	ColInvoiceID:       true,
	ColCardToken:       true,
	ColPhoneNumber:     true,
	ColCardNumber:      true,
	ColPaymentID:       true,
	ColExpireDate:      true,
}

const paymentColumns = `id, token, merchant_trans_id, total, status, status_note,
		invoice_id, card_token, phone_number, card_number, payment_id, expire_date, modified`

type repository struct {
	db             *sql.DB
	table          string
	callbacksTable string
	now            func() time.Time
}

// NewRepository binds the store to a payments table. Callback audit rows
// go to "<table>_callbacks".
func NewRepository(db *sql.DB, table string) Repository {
	if table == "" {
		table = "payments"
	}
	return &repository{
		db:             db,
		table:          pq.QuoteIdentifier(table),
		callbacksTable: pq.QuoteIdentifier(table + "_callbacks"),
		now:            time.Now,
	}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Payment, error) {
	return r.findOne(ctx, "FindByID", "id", id)
}

func (r *repository) FindByToken(ctx context.Context, token string) (*Payment, error) {
	return r.findOne(ctx, "FindByToken", "token", token)
}

func (r *repository) FindByMerchantTransID(ctx context.Context, merchantTransID string) (*Payment, error) {
	return r.findOne(ctx, "FindByMerchantTransID", "merchant_trans_id", merchantTransID)
}

func (r *repository) findOne(ctx context.Context, method, column string, value any) (*Payment, error) {
	logger.FromCtx(ctx).Debug("loading payment",
		zap.String("repo", "Payment"),
		zap.String("method", method),
		zap.Any(column, value),
	)

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 LIMIT 1`, paymentColumns, r.table, column)

	var (
		p      Payment
		status string
	)
	err := r.db.QueryRowContext(ctx, q, value).Scan(
		&p.ID, &p.Token, &p.MerchantTransID, &p.Total, &status, &p.StatusNote,
		&p.InvoiceID, &p.CardToken, &p.PhoneNumber, &p.CardNumber, &p.PaymentID, &p.ExpireDate, &p.Modified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by %s: %w", column, err)
	}

	p.Status = Status(status)
	return &p, nil
}

func (r *repository) UpdateByID(ctx context.Context, id int64, fields Fields) (int64, error) {
	return r.update(ctx, "id", id, fields)
}

func (r *repository) UpdateByToken(ctx context.Context, token string, fields Fields) (int64, error) {
	return r.update(ctx, "token", token, fields)
}

// update writes fields plus the modified stamp. merchant_trans_id is only
// ever filled when empty, so an assigned value survives later updates.
func (r *repository) update(ctx context.Context, keyColumn string, key any, fields Fields) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		if col == ColMerchantTransID {
			sets = append(sets, fmt.Sprintf("%s = COALESCE(%s, $%d)", col, col, i+1))
		} else {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		}
		args = append(args, fields[col])
	}
	sets = append(sets, fmt.Sprintf("modified = $%d", len(cols)+1))
	args = append(args, r.now(), key)

	q := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		r.table, strings.Join(sets, ", "), keyColumn, len(cols)+2)

	logger.FromCtx(ctx).Debug("updating payment",
		zap.String("repo", "Payment"),
		zap.String("key", keyColumn),
		zap.Strings("columns", cols),
	)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("update payment by %s: %w", keyColumn, err)
	}

	return res.RowsAffected()
}

func (r *repository) SaveCallback(ctx context.Context, cb *Callback) (int64, error) {
	payload := cb.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	q := fmt.Sprintf(`
	INSERT INTO %s (service, click_trans_id, action, payload)
	VALUES ($1, $2, $3, $4)
	RETURNING id;
	`, r.callbacksTable)

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		cb.Service,
		cb.ClickTransID,
		cb.Action,
		[]byte(payload),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	cb.ID = id
	return id, nil
}

func (r *repository) MarkCallbackProcessed(ctx context.Context, callbackID int64, resultCode int) error {
	q := fmt.Sprintf(`
	UPDATE %s
	SET processed_at = now(), result_code = $2
	WHERE id = $1;
	`, r.callbacksTable)

	_, err := r.db.ExecContext(ctx, q, callbackID, resultCode)
	return err
}

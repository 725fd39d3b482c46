package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
)

type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentCols = `id, week_id, user_id, amount, original_amount, is_paid, paid_at, notes, created_at, updated_at`

func scanPayment(scanner interface{ Scan(...any) error }) (*model.WeeklyPayment, error) {
	var p model.WeeklyPayment
	var originalAmount sql.NullString
	var paidAt sql.NullTime
	err := scanner.Scan(&p.ID, &p.WeekID, &p.UserID, &p.Amount, &originalAmount,
		&p.IsPaid, &paidAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if originalAmount.Valid {
		amt, err := decimal.NewFromString(originalAmount.String)
		if err != nil {
			return nil, fmt.Errorf("parse original amount %q: %w", originalAmount.String, err)
		}
		p.OriginalAmount = &amt
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}

func (s *PaymentStore) GetForWeekUser(weekID, userID int64) (*model.WeeklyPayment, error) {
	row := s.db.QueryRow(`SELECT `+paymentCols+` FROM weekly_payments WHERE week_id = ? AND user_id = ?`, weekID, userID)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// IsWeekPaid reports whether a paid payment exists for (week, user). A true
// result locks the week: callers must reject completion toggles.
func (s *PaymentStore) IsWeekPaid(weekID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM weekly_payments WHERE week_id = ? AND user_id = ? AND is_paid = 1`,
		weekID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check week paid: %w", err)
	}
	return n > 0, nil
}

// MarkPaid records a payment for (week, user), upserting on the unique pair.
// originalAmount should carry the calculated total when amount overrides it.
func (s *PaymentStore) MarkPaid(weekID, userID int64, amount decimal.Decimal, originalAmount *decimal.Decimal, notes string) (*model.WeeklyPayment, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO weekly_payments (week_id, user_id, amount, original_amount, is_paid, paid_at, notes)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(week_id, user_id) DO UPDATE SET
		   amount = excluded.amount,
		   original_amount = excluded.original_amount,
		   is_paid = 1,
		   paid_at = excluded.paid_at,
		   notes = excluded.notes,
		   updated_at = excluded.paid_at`,
		weekID, userID, amount, originalAmount, now, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	return s.GetForWeekUser(weekID, userID)
}

func (s *PaymentStore) List() ([]model.WeeklyPayment, error) {
	rows, err := s.db.Query(`SELECT ` + paymentCols + ` FROM weekly_payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.WeeklyPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

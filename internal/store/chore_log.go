package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
)

type ChoreLogStore struct {
	db *sql.DB
}

func NewChoreLogStore(db *sql.DB) *ChoreLogStore {
	return &ChoreLogStore{db: db}
}

const choreLogCols = `id, user_id, chore_id, week_id, assignment_id, completed_date, completion_slot, amount_earned, completed_at`

func scanChoreLog(scanner interface{ Scan(...any) error }) (*model.ChoreLog, error) {
	var l model.ChoreLog
	var assignmentID sql.NullInt64
	var completedDate string
	err := scanner.Scan(&l.ID, &l.UserID, &l.ChoreID, &l.WeekID, &assignmentID,
		&completedDate, &l.Slot, &l.AmountEarned, &l.CompletedAt)
	if err != nil {
		return nil, err
	}
	if assignmentID.Valid {
		l.AssignmentID = &assignmentID.Int64
	}
	if l.CompletedDate, err = parseDate(completedDate); err != nil {
		return nil, err
	}
	return &l, nil
}

// IsCompleted reports whether a completion exists for the unique
// (user, chore, date, slot) key.
func (s *ChoreLogStore) IsCompleted(userID, choreID int64, date time.Time, slot int) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM chore_logs
		 WHERE user_id = ? AND chore_id = ? AND completed_date = ? AND completion_slot = ?`,
		userID, choreID, fmtDate(date), slot,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return n > 0, nil
}

// CompletionCount counts all completions for a chore/user within a week,
// across all dates and slots.
func (s *ChoreLogStore) CompletionCount(userID, choreID, weekID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM chore_logs WHERE user_id = ? AND chore_id = ? AND week_id = ?`,
		userID, choreID, weekID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}

func (s *ChoreLogStore) ListForUserChoreWeek(userID, choreID, weekID int64) ([]model.ChoreLog, error) {
	rows, err := s.db.Query(
		`SELECT `+choreLogCols+` FROM chore_logs
		 WHERE user_id = ? AND chore_id = ? AND week_id = ?
		 ORDER BY completed_date ASC, completion_slot ASC`,
		userID, choreID, weekID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chore logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ChoreLog
	for rows.Next() {
		l, err := scanChoreLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// SumEarned totals amount_earned over a user's completions, optionally
// bounded by completion date (inclusive on both ends).
func (s *ChoreLogStore) SumEarned(userID int64, from, to *time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(amount_earned, '0') FROM chore_logs WHERE user_id = ?`
	args := []any{userID}
	if from != nil {
		query += ` AND completed_date >= ?`
		args = append(args, fmtDate(*from))
	}
	if to != nil {
		query += ` AND completed_date <= ?`
		args = append(args, fmtDate(*to))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum earned: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// Toggle flips the completion state for (user, chore, date, slot). If an
// entry exists it is deleted and (false, nil) is returned; otherwise one is
// created with the given amount and (true, entry) is returned. Two identical
// calls in a row restore the original state.
//
// The check-then-act pair runs inside a transaction. If a concurrent caller
// wins the insert race, the unique (user, chore, date, slot) constraint fires
// and the whole operation retries once; the retry observes the winner's row
// and deletes it, so toggle semantics hold either way.
func (s *ChoreLogStore) Toggle(userID, choreID, weekID int64, assignmentID *int64, date time.Time, slot int, amount decimal.Decimal) (bool, *model.ChoreLog, error) {
	var created bool
	var entry *model.ChoreLog

	backoff := retry.WithMaxRetries(1, retry.NewConstant(5*time.Millisecond))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		var err error
		created, entry, err = s.toggleOnce(userID, choreID, weekID, assignmentID, date, slot, amount)
		if err != nil && isUniqueViolation(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return created, entry, nil
}

func (s *ChoreLogStore) toggleOnce(userID, choreID, weekID int64, assignmentID *int64, date time.Time, slot int, amount decimal.Decimal) (bool, *model.ChoreLog, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRow(
		`SELECT id FROM chore_logs
		 WHERE user_id = ? AND chore_id = ? AND completed_date = ? AND completion_slot = ?`,
		userID, choreID, fmtDate(date), slot,
	).Scan(&existingID)

	switch {
	case err == nil:
		if _, err := tx.Exec(`DELETE FROM chore_logs WHERE id = ?`, existingID); err != nil {
			return false, nil, fmt.Errorf("delete chore log: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, nil, fmt.Errorf("commit toggle: %w", err)
		}
		return false, nil, nil

	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO chore_logs (user_id, chore_id, week_id, assignment_id, completed_date, completion_slot, amount_earned)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, choreID, weekID, assignmentID, fmtDate(date), slot, amount,
		)
		if err != nil {
			return false, nil, fmt.Errorf("insert chore log: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return false, nil, fmt.Errorf("last insert id: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, nil, fmt.Errorf("commit toggle: %w", err)
		}
		entry, err := s.getByID(id)
		if err != nil {
			return false, nil, err
		}
		return true, entry, nil

	default:
		return false, nil, fmt.Errorf("check existing log: %w", err)
	}
}

func (s *ChoreLogStore) getByID(id int64) (*model.ChoreLog, error) {
	row := s.db.QueryRow(`SELECT `+choreLogCols+` FROM chore_logs WHERE id = ?`, id)
	l, err := scanChoreLog(row)
	if err != nil {
		return nil, fmt.Errorf("get chore log: %w", err)
	}
	return l, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

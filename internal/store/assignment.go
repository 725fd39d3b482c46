package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentCols = `id, week_id, chore_id, user_id, custom_name, custom_amount, created_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.ChoreAssignment, error) {
	var a model.ChoreAssignment
	var customName sql.NullString
	var customAmount sql.NullString
	err := scanner.Scan(&a.ID, &a.WeekID, &a.ChoreID, &a.UserID, &customName, &customAmount, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if customName.Valid {
		a.CustomName = &customName.String
	}
	if customAmount.Valid {
		amt, err := decimal.NewFromString(customAmount.String)
		if err != nil {
			return nil, fmt.Errorf("parse custom amount %q: %w", customAmount.String, err)
		}
		a.CustomAmount = &amt
	}
	return &a, nil
}

func (s *AssignmentStore) Create(weekID, choreID, userID int64, customName *string, customAmount *decimal.Decimal) (*model.ChoreAssignment, error) {
	result, err := s.db.Exec(
		`INSERT INTO weekly_chore_assignments (week_id, chore_id, user_id, custom_name, custom_amount)
		 VALUES (?, ?, ?, ?, ?)`,
		weekID, choreID, userID, customName, customAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) GetByID(id int64) (*model.ChoreAssignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM weekly_chore_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) ListForUserWeek(userID, weekID int64) ([]model.ChoreAssignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM weekly_chore_assignments
		 WHERE user_id = ? AND week_id = ? ORDER BY id ASC`,
		userID, weekID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.ChoreAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// ListWeekIDsForUser returns the distinct weeks the user has ever had
// assignments in, used for unpaid-week discovery.
func (s *AssignmentStore) ListWeekIDsForUser(userID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT week_id FROM weekly_chore_assignments WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignment weeks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan week id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteCascade removes an assignment together with every ledger entry for
// its (user, chore, week), and optionally the chore definition itself (for
// ad-hoc chores, which own a one-off definition). Runs in one transaction so
// no orphaned earned-amount rows survive a partial failure.
func (s *AssignmentStore) DeleteCascade(a *model.ChoreAssignment, removeDefinition bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM chore_logs WHERE user_id = ? AND chore_id = ? AND week_id = ?`,
		a.UserID, a.ChoreID, a.WeekID,
	); err != nil {
		return fmt.Errorf("purge logs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM weekly_chore_assignments WHERE id = ?`, a.ID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if removeDefinition {
		if _, err := tx.Exec(`DELETE FROM chore_definitions WHERE id = ? AND is_preset = 0`, a.ChoreID); err != nil {
			return fmt.Errorf("delete ad-hoc definition: %w", err)
		}
	}
	return tx.Commit()
}

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukewell/chorewheel/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

const choreCols = `id, name, description, amount, frequency, times_per_day, times_per_week,
	preferred_days, is_preset, applies_to_all, created_by_user_id, is_active, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.ChoreDefinition, error) {
	var c model.ChoreDefinition
	var timesPerWeek sql.NullInt64
	var preferredDays sql.NullString
	var createdBy sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.Name, &c.Description, &c.Amount, &c.Frequency, &c.TimesPerDay,
		&timesPerWeek, &preferredDays, &c.IsPreset, &c.AppliesToAll,
		&createdBy, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if timesPerWeek.Valid {
		n := int(timesPerWeek.Int64)
		c.TimesPerWeek = &n
	}
	if preferredDays.Valid {
		c.PreferredDays = parseDayList(preferredDays.String)
	}
	if createdBy.Valid {
		c.CreatedByUserID = &createdBy.Int64
	}
	return &c, nil
}

// parseDayList parses a comma-separated weekday list like "0,5" (Monday = 0).
// Malformed entries are skipped.
func parseDayList(s string) []int {
	var days []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, n)
	}
	return days
}

func joinDayList(days []int) *string {
	if len(days) == 0 {
		return nil
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	s := strings.Join(parts, ",")
	return &s
}

func (s *ChoreStore) Create(c *model.ChoreDefinition) (*model.ChoreDefinition, error) {
	result, err := s.db.Exec(
		`INSERT INTO chore_definitions
		 (name, description, amount, frequency, times_per_day, times_per_week, preferred_days,
		  is_preset, applies_to_all, created_by_user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.Amount, c.Frequency, c.TimesPerDay,
		nullableInt(c.TimesPerWeek), joinDayList(c.PreferredDays),
		c.IsPreset, c.AppliesToAll, c.CreatedByUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore definition: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if !c.AppliesToAll && len(c.AssignedUserIDs) > 0 {
		if err := s.SetAssignedUsers(id, c.AssignedUserIDs); err != nil {
			return nil, err
		}
	}
	return s.GetByID(id)
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *ChoreStore) GetByID(id int64) (*model.ChoreDefinition, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chore_definitions WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore definition: %w", err)
	}
	if err := s.loadAssignedUsers(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreStore) List() ([]model.ChoreDefinition, error) {
	return s.list(`SELECT ` + choreCols + ` FROM chore_definitions ORDER BY name ASC`)
}

// ListActivePresets returns the active preset catalog used when materializing
// a user's weekly assignments.
func (s *ChoreStore) ListActivePresets() ([]model.ChoreDefinition, error) {
	return s.list(`SELECT ` + choreCols + ` FROM chore_definitions WHERE is_preset = 1 AND is_active = 1 ORDER BY name ASC`)
}

func (s *ChoreStore) list(query string) ([]model.ChoreDefinition, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list chore definitions: %w", err)
	}
	defer rows.Close()

	var chores []model.ChoreDefinition
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore definition: %w", err)
		}
		chores = append(chores, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range chores {
		if err := s.loadAssignedUsers(&chores[i]); err != nil {
			return nil, err
		}
	}
	return chores, nil
}

func (s *ChoreStore) loadAssignedUsers(c *model.ChoreDefinition) error {
	if c.AppliesToAll {
		return nil
	}
	rows, err := s.db.Query(`SELECT user_id FROM chore_user_assignments WHERE chore_id = ? ORDER BY user_id`, c.ID)
	if err != nil {
		return fmt.Errorf("load assigned users: %w", err)
	}
	defer rows.Close()

	c.AssignedUserIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan assigned user: %w", err)
		}
		c.AssignedUserIDs = append(c.AssignedUserIDs, id)
	}
	return rows.Err()
}

func (s *ChoreStore) Update(c *model.ChoreDefinition) (*model.ChoreDefinition, error) {
	_, err := s.db.Exec(
		`UPDATE chore_definitions SET
		 name = ?, description = ?, amount = ?, frequency = ?, times_per_day = ?,
		 times_per_week = ?, preferred_days = ?, applies_to_all = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Description, c.Amount, c.Frequency, c.TimesPerDay,
		nullableInt(c.TimesPerWeek), joinDayList(c.PreferredDays),
		c.AppliesToAll, c.IsActive, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore definition: %w", err)
	}
	if err := s.SetAssignedUsers(c.ID, c.AssignedUserIDs); err != nil {
		return nil, err
	}
	return s.GetByID(c.ID)
}

// SetAssignedUsers replaces the explicit assignee set for a chore.
func (s *ChoreStore) SetAssignedUsers(choreID int64, userIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chore_user_assignments WHERE chore_id = ?`, choreID); err != nil {
		return fmt.Errorf("clear assigned users: %w", err)
	}
	for _, uid := range userIDs {
		if _, err := tx.Exec(`INSERT INTO chore_user_assignments (chore_id, user_id) VALUES (?, ?)`, choreID, uid); err != nil {
			return fmt.Errorf("insert assigned user: %w", err)
		}
	}
	return tx.Commit()
}

func (s *ChoreStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE chore_definitions SET is_active = ?, updated_at = ? WHERE id = ?`, active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set chore active: %w", err)
	}
	return nil
}

// Delete removes a definition. Assignments and ledger entries referencing it
// go with it via foreign key cascades.
func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chore_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore definition: %w", err)
	}
	return nil
}

// FindTwiceDailyByName returns the first twice-daily definition whose name
// contains the given substring, case-insensitively. Used by the
// teeth-brushing dashboard widget.
func (s *ChoreStore) FindTwiceDailyByName(substr string) (*model.ChoreDefinition, error) {
	row := s.db.QueryRow(
		`SELECT `+choreCols+` FROM chore_definitions
		 WHERE frequency = ? AND name LIKE ? COLLATE NOCASE
		 ORDER BY id LIMIT 1`,
		model.FrequencyTwiceDaily, "%"+substr+"%",
	)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find twice-daily chore: %w", err)
	}
	if err := s.loadAssignedUsers(c); err != nil {
		return nil, err
	}
	return c, nil
}

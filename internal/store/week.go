package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/week"
)

type WeekStore struct {
	db *sql.DB
}

func NewWeekStore(db *sql.DB) *WeekStore {
	return &WeekStore{db: db}
}

const weekCols = `id, start_date, end_date, created_at`

func scanWeek(scanner interface{ Scan(...any) error }) (*model.WeekPeriod, error) {
	var w model.WeekPeriod
	var start, end string
	if err := scanner.Scan(&w.ID, &start, &end, &w.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if w.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if w.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOrCreate resolves the week period containing date, creating it if this
// is the first time any date in that Monday-Sunday span is referenced.
// Concurrent first references are safe: the unique start_date column makes
// the insert a no-op for the loser, and both callers read the same row back.
func (s *WeekStore) GetOrCreate(date time.Time) (*model.WeekPeriod, error) {
	monday := week.MondayOf(date)
	sunday := monday.AddDate(0, 0, 6)

	_, err := s.db.Exec(
		`INSERT INTO week_periods (start_date, end_date) VALUES (?, ?)
		 ON CONFLICT(start_date) DO NOTHING`,
		fmtDate(monday), fmtDate(sunday),
	)
	if err != nil {
		return nil, fmt.Errorf("insert week period: %w", err)
	}
	w, err := s.GetByStartDate(monday)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("week period %s missing after insert", fmtDate(monday))
	}
	return w, nil
}

func (s *WeekStore) GetByID(id int64) (*model.WeekPeriod, error) {
	row := s.db.QueryRow(`SELECT `+weekCols+` FROM week_periods WHERE id = ?`, id)
	w, err := scanWeek(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week period: %w", err)
	}
	return w, nil
}

// GetByStartDate looks up an existing week by its Monday. Returns nil if the
// week was never created — callers distinguish "never visited" from "zero
// activity" this way.
func (s *WeekStore) GetByStartDate(monday time.Time) (*model.WeekPeriod, error) {
	row := s.db.QueryRow(`SELECT `+weekCols+` FROM week_periods WHERE start_date = ?`, fmtDate(monday))
	w, err := scanWeek(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week period by start date: %w", err)
	}
	return w, nil
}

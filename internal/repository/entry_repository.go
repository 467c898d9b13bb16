package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/labdesk/lab-ledger-api/internal/models"
	"github.com/labdesk/lab-ledger-api/pkg/database"
)

const openBySystemQuery = `SELECT e.id AS entry_id, e.student_id, s.name AS student_name, e.system_no
	FROM entries e
	JOIN students s ON s.id = e.student_id
	WHERE e.system_no = ? AND e.date = ? AND e.time_out IS NULL`

const openByStudentQuery = `SELECT e.id AS entry_id, e.student_id, s.name AS student_name, e.system_no
	FROM entries e
	JOIN students s ON s.id = e.student_id
	WHERE e.student_id = ? AND e.date = ? AND e.time_out IS NULL`

// EntryRepository handles persistence for lab entries.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository constructs an EntryRepository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

func findOpen(ctx context.Context, q queryer, query string, key interface{}, date string) (*models.Occupancy, error) {
	var occ models.Occupancy
	if err := q.GetContext(ctx, &occ, q.Rebind(query), key, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &occ, nil
}

// Create inserts an open entry unless the workstation or the student is
// already inside that day. The checks and the insert share a transaction,
// and the partial unique indexes backstop concurrent writers, so losing a
// race still surfaces as a conflict rather than a double seat.
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) (*models.CheckInConflict, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin check-in: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	// the workstation check runs first; its conflict wins when both apply
	occ, err := findOpen(ctx, tx, openBySystemQuery, entry.SystemNo, entry.Date)
	if err != nil {
		return nil, fmt.Errorf("check workstation: %w", err)
	}
	if occ != nil {
		return &models.CheckInConflict{Kind: models.ConflictWorkstation, Occupant: *occ}, nil
	}

	occ, err = findOpen(ctx, tx, openByStudentQuery, entry.StudentID, entry.Date)
	if err != nil {
		return nil, fmt.Errorf("check student: %w", err)
	}
	if occ != nil {
		return &models.CheckInConflict{Kind: models.ConflictStudentInside, Occupant: *occ}, nil
	}

	insert := tx.Rebind(`INSERT INTO entries (student_id, lab_name, system_no, time_in, date)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, entry.StudentID, entry.LabName, entry.SystemNo, entry.TimeIn, entry.Date); err != nil {
		// release the connection before re-reading the winner
		_ = tx.Rollback()
		return r.classifyRace(ctx, err, entry)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit check-in: %w", err)
	}
	commit = true
	return nil, nil
}

// classifyRace maps a unique violation from a lost race to the matching
// conflict, re-reading the winning entry to name it in the notice.
func (r *EntryRepository) classifyRace(ctx context.Context, execErr error, entry *models.Entry) (*models.CheckInConflict, error) {
	switch {
	case database.IsUniqueViolation(execErr, "uq_entries_open_system", "entries.system_no"):
		occ, err := r.FindOpenBySystem(ctx, entry.SystemNo, entry.Date)
		if err != nil || occ == nil {
			occ = &models.Occupancy{SystemNo: entry.SystemNo}
		}
		return &models.CheckInConflict{Kind: models.ConflictWorkstation, Occupant: *occ}, nil
	case database.IsUniqueViolation(execErr, "uq_entries_open_student", "entries.student_id"):
		occ, err := r.FindOpenByStudent(ctx, entry.StudentID, entry.Date)
		if err != nil || occ == nil {
			occ = &models.Occupancy{StudentID: entry.StudentID}
		}
		return &models.CheckInConflict{Kind: models.ConflictStudentInside, Occupant: *occ}, nil
	}
	return nil, fmt.Errorf("insert entry: %w", execErr)
}

// FindOpenBySystem returns the live occupancy of a workstation, or nil
// when the seat is free.
func (r *EntryRepository) FindOpenBySystem(ctx context.Context, systemNo, date string) (*models.Occupancy, error) {
	occ, err := findOpen(ctx, r.db, openBySystemQuery, systemNo, date)
	if err != nil {
		return nil, fmt.Errorf("find open by system: %w", err)
	}
	return occ, nil
}

// FindOpenByStudent returns the student's open entry for the day, or nil
// when they are not inside.
func (r *EntryRepository) FindOpenByStudent(ctx context.Context, studentID int64, date string) (*models.Occupancy, error) {
	occ, err := findOpen(ctx, r.db, openByStudentQuery, studentID, date)
	if err != nil {
		return nil, fmt.Errorf("find open by student: %w", err)
	}
	return occ, nil
}

// CloseOpen stamps time_out on the student's open entry for the day and
// reports how many rows that closed.
func (r *EntryRepository) CloseOpen(ctx context.Context, studentID int64, date, timeOut string) (int64, error) {
	query := r.db.Rebind(`UPDATE entries SET time_out = ? WHERE student_id = ? AND date = ? AND time_out IS NULL`)
	res, err := r.db.ExecContext(ctx, query, timeOut, studentID, date)
	if err != nil {
		return 0, fmt.Errorf("close entry: %w", err)
	}
	closed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close entry rows: %w", err)
	}
	return closed, nil
}

// List returns entries joined with their students, newest first. The
// filter narrows by day and caps the result when Limit is set.
func (r *EntryRepository) List(ctx context.Context, filter models.EntryFilter) ([]models.EntryDetail, error) {
	query := `SELECT e.id, e.student_id, e.lab_name, e.system_no, e.time_in, e.time_out, e.date,
		s.name AS student_name, s.reg_no, s.dept
		FROM entries e
		JOIN students s ON s.id = e.student_id`
	args := []interface{}{}
	if filter.Date != "" {
		query += " WHERE e.date = ?"
		args = append(args, filter.Date)
	}
	query += " ORDER BY e.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var entries []models.EntryDetail
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// CountByDate returns how many entries were opened on the given day.
func (r *EntryRepository) CountByDate(ctx context.Context, date string) (int, error) {
	var total int
	query := r.db.Rebind(`SELECT COUNT(*) FROM entries WHERE date = ?`)
	if err := r.db.GetContext(ctx, &total, query, date); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return total, nil
}

// CountOpenByDate returns how many students are still inside on the
// given day.
func (r *EntryRepository) CountOpenByDate(ctx context.Context, date string) (int, error) {
	var total int
	query := r.db.Rebind(`SELECT COUNT(*) FROM entries WHERE date = ? AND time_out IS NULL`)
	if err := r.db.GetContext(ctx, &total, query, date); err != nil {
		return 0, fmt.Errorf("count open entries: %w", err)
	}
	return total, nil
}

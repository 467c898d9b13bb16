package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/labdesk/lab-ledger-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every registered student ordered by name.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, name, reg_no, dept FROM students ORDER BY name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByRegNo fetches a student by registration number. sql.ErrNoRows
// passes through for the service to classify.
func (r *StudentRepository) FindByRegNo(ctx context.Context, regNo string) (*models.Student, error) {
	query := r.db.Rebind(`SELECT id, name, reg_no, dept FROM students WHERE reg_no = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, regNo); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByID fetches a student by numeric id. sql.ErrNoRows passes through.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := r.db.Rebind(`SELECT id, name, reg_no, dept FROM students WHERE id = ?`)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student. A duplicate registration number surfaces
// as the driver's unique violation for the service to classify.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := r.db.Rebind(`INSERT INTO students (name, reg_no, dept) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, student.Name, student.RegNo, student.Department); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Delete removes a student together with every entry they produced.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM entries WHERE student_id = ?`), id); err != nil {
		return fmt.Errorf("delete student entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM students WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	commit = true
	return nil
}

// Count returns the number of registered students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

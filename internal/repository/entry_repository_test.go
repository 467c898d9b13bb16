package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdesk/lab-ledger-api/internal/models"
)

func testEntry() *models.Entry {
	return &models.Entry{
		StudentID: 1,
		LabName:   "Computer Lab",
		SystemNo:  "7",
		TimeIn:    "09:00:00",
		Date:      "2024-03-14",
	}
}

func TestEntryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(openBySystemQuery)).
		WithArgs("7", "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}))
	mock.ExpectQuery(regexp.QuoteMeta(openByStudentQuery)).
		WithArgs(int64(1), "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}))
	mock.ExpectExec("INSERT INTO entries").
		WithArgs(int64(1), "Computer Lab", "7", "09:00:00", "2024-03-14").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	conflict, err := repo.Create(context.Background(), testEntry())
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCreateSeatTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(openBySystemQuery)).
		WithArgs("7", "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}).
			AddRow(3, 2, "Vikram Iyer", "7"))
	mock.ExpectRollback()

	conflict, err := repo.Create(context.Background(), testEntry())
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictWorkstation, conflict.Kind)
	assert.Equal(t, "Vikram Iyer", conflict.Occupant.StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCreateAlreadyInside(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(openBySystemQuery)).
		WithArgs("7", "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}))
	mock.ExpectQuery(regexp.QuoteMeta(openByStudentQuery)).
		WithArgs(int64(1), "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}).
			AddRow(4, 1, "Asha Rao", "12"))
	mock.ExpectRollback()

	conflict, err := repo.Create(context.Background(), testEntry())
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictStudentInside, conflict.Kind)
	assert.Equal(t, "12", conflict.Occupant.SystemNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCreateLostRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(openBySystemQuery)).
		WithArgs("7", "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}))
	mock.ExpectQuery(regexp.QuoteMeta(openByStudentQuery)).
		WithArgs(int64(1), "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}))
	mock.ExpectExec("INSERT INTO entries").
		WithArgs(int64(1), "Computer Lab", "7", "09:00:00", "2024-03-14").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_entries_open_system"})
	mock.ExpectRollback()
	// the winner is re-read to name them in the notice
	mock.ExpectQuery(regexp.QuoteMeta(openBySystemQuery)).
		WithArgs("7", "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "student_id", "student_name", "system_no"}).
			AddRow(9, 2, "Vikram Iyer", "7"))

	conflict, err := repo.Create(context.Background(), testEntry())
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictWorkstation, conflict.Kind)
	assert.Equal(t, "Vikram Iyer", conflict.Occupant.StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCloseOpen(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE entries SET time_out = ? WHERE student_id = ? AND date = ? AND time_out IS NULL")).
		WithArgs("17:45:00", int64(1), "2024-03-14").
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := repo.CloseOpen(context.Background(), 1, "2024-03-14", "17:45:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCloseOpenNothingToClose(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE entries SET time_out = ?")).
		WithArgs("17:45:00", int64(1), "2024-03-14").
		WillReturnResult(sqlmock.NewResult(0, 0))

	closed, err := repo.CloseOpen(context.Background(), 1, "2024-03-14", "17:45:00")
	require.NoError(t, err)
	assert.Zero(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryListForDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "lab_name", "system_no", "time_in", "time_out", "date", "student_name", "reg_no", "dept"}).
		AddRow(2, 1, "Computer Lab", "7", "09:00:00", nil, "2024-03-14", "Asha Rao", "20CS101", "CSE").
		AddRow(1, 2, "Computer Lab", "12", "08:30:00", "09:10:00", "2024-03-14", "Vikram Iyer", "20EC042", "ECE")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.student_id, e.lab_name, e.system_no, e.time_in, e.time_out, e.date,")).
		WithArgs("2024-03-14").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.EntryFilter{Date: "2024-03-14", Limit: 200})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Nil(t, entries[0].TimeOut)
	require.NotNil(t, entries[1].TimeOut)
	assert.Equal(t, "09:10:00", *entries[1].TimeOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM entries WHERE date = ?")).
		WithArgs("2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM entries WHERE date = ? AND time_out IS NULL")).
		WithArgs("2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	total, err := repo.CountByDate(context.Background(), "2024-03-14")
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	open, err := repo.CountOpenByDate(context.Background(), "2024-03-14")
	require.NoError(t, err)
	assert.Equal(t, 5, open)
	assert.NoError(t, mock.ExpectationsWereMet())
}

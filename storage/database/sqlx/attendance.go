package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
)

const attendanceColumns = `id, class_id, student_id, date, status, notes, marked_by, created_at, updated_at`

// uniqueViolation is the psql error code raised when the
// (class_id, student_id, date) unique index rejects an insert.
const uniqueViolation = "23505"

type attendanceRow struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	StudentID string    `db:"student_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	Notes     string    `db:"notes"`
	MarkedBy  string    `db:"marked_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) unpack() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		ClassID:   r.ClassID,
		StudentID: r.StudentID,
		Date:      attendance.DayOf(r.Date),
		Status:    r.Status,
		Notes:     r.Notes,
		MarkedBy:  r.MarkedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func packRecord(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:        rec.ID,
		ClassID:   rec.ClassID,
		StudentID: rec.StudentID,
		Date:      rec.Date.Time(),
		Status:    rec.Status,
		Notes:     rec.Notes,
		MarkedBy:  rec.MarkedBy,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
}

func unpackRecords(rows []attendanceRow) []attendance.Record {
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.unpack())
	}
	return records
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to attendance.ErrRecordNotFound
func (repo attendanceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return attendance.ErrRecordNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	query := `
		INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (:id, :class_id, :student_id, :date, :status, :notes, :marked_by, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, packRecord(rec)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return attendance.Record{}, attendance.ErrConflict
		}
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) FindRecord(ctx context.Context, classID, studentID string, day attendance.Day) (attendance.Record, error) {
	var row attendanceRow
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE class_id = $1 AND student_id = $2 AND date = $3`
	if err := repo.db.GetContext(ctx, &row, query, classID, studentID, day.Time()); err != nil {
		return attendance.Record{}, repo.trapNoRowsErr(err, "finding attendance record")
	}
	return row.unpack(), nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	var row attendanceRow
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return attendance.Record{}, repo.trapNoRowsErr(err, "finding attendance record by ID")
	}
	return row.unpack(), nil
}

func (repo attendanceRepository) QueryRecordsByDay(ctx context.Context, classID string, day attendance.Day) ([]attendance.Record, error) {
	return repo.QueryRecordsByRange(ctx, classID, day, day)
}

func (repo attendanceRepository) QueryRecordsByRange(ctx context.Context, classID string, start, end attendance.Day) ([]attendance.Record, error) {
	var rows []attendanceRow
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE class_id = $1 AND date BETWEEN $2 AND $3`
	if err := repo.db.SelectContext(ctx, &rows, query, classID, start.Time(), end.Time()); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return unpackRecords(rows), nil
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	query := `
		UPDATE attendance
		SET status = :status, notes = :notes, marked_by = :marked_by, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, packRecord(rec))
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (repo attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

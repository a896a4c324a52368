package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

const (
	classColumns   = `id, name, description, capacity, academic_year, semester, teacher_id, created_at, updated_at`
	studentColumns = `id, first_name, last_name, email, phone, address, date_of_birth, admission_date, class_id, created_at, updated_at`
)

type classRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Capacity     int       `db:"capacity"`
	AcademicYear string    `db:"academic_year"`
	Semester     string    `db:"semester"`
	TeacherID    string    `db:"teacher_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r classRow) unpack() school.Class {
	return school.Class(r)
}

func packClass(cls school.Class) classRow {
	cls.CreatedAt = cls.CreatedAt.UTC()
	cls.UpdatedAt = cls.UpdatedAt.UTC()
	return classRow(cls)
}

type studentRow struct {
	ID            string    `db:"id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Address       string    `db:"address"`
	DateOfBirth   time.Time `db:"date_of_birth"`
	AdmissionDate time.Time `db:"admission_date"`
	ClassID       string    `db:"class_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r studentRow) unpack() school.Student {
	return school.Student(r)
}

func packStudent(std school.Student) studentRow {
	std.DateOfBirth = std.DateOfBirth.UTC()
	std.AdmissionDate = std.AdmissionDate.UTC()
	std.CreatedAt = std.CreatedAt.UTC()
	std.UpdatedAt = std.UpdatedAt.UTC()
	return studentRow(std)
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func orderClause(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return ` ORDER BY ` + strings.Join(orderList, ", ")
}

func (repo schoolRepository) CheckClassNameUniqueness(ctx context.Context, name string, excludedClasses ...school.Class) error {
	query := `SELECT EXISTS (SELECT 1 FROM class WHERE LOWER(name) = LOWER($1)`
	args := []interface{}{name}
	if len(excludedClasses) > 0 {
		ids := make([]string, 0, len(excludedClasses))
		for _, cls := range excludedClasses {
			ids = append(ids, cls.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking class name uniqueness")
	}
	if exists {
		return school.ErrClassExists
	}
	return nil
}

func (repo schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	cls.ID = uuid.New().String()
	query := `
		INSERT INTO class (` + classColumns + `)
		VALUES (:id, :name, :description, :capacity, :academic_year, :semester, :teacher_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, packClass(cls)); err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Class{}, school.ErrClassNotFound
	}
	var row classRow
	query := `SELECT ` + classColumns + ` FROM class WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "finding class")
	}
	return row.unpack(), nil
}

func (repo schoolRepository) QueryClasses(ctx context.Context, teacherID string, ordering []core.DBOrdering) ([]school.Class, error) {
	query := `SELECT ` + classColumns + ` FROM class`
	var args []interface{}
	if teacherID != "" {
		query += ` WHERE teacher_id = $1`
		args = append(args, teacherID)
	}
	query += orderClause(ordering)

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.unpack())
	}
	return classes, nil
}

func (repo schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	query := `
		UPDATE class
		SET name = :name, description = :description, capacity = :capacity, academic_year = :academic_year,
		    semester = :semester, teacher_id = :teacher_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, packClass(cls))
	if err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return cls, nil
}

func (repo schoolRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM class WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return nil
}

func (repo schoolRepository) CreateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	std.ID = uuid.New().String()
	query := `
		INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :first_name, :last_name, :email, :phone, :address, :date_of_birth, :admission_date, :class_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, packStudent(std)); err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Student{}, school.ErrStudentNotFound
	}
	var row studentRow
	query := `SELECT ` + studentColumns + ` FROM student WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "finding student")
	}
	return row.unpack(), nil
}

func (repo schoolRepository) QueryStudents(ctx context.Context, classID string, ordering []core.DBOrdering) ([]school.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student`
	var args []interface{}
	if classID != "" {
		query += ` WHERE class_id = $1`
		args = append(args, classID)
	}
	query += orderClause(ordering)

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.unpack())
	}
	return students, nil
}

func (repo schoolRepository) UpdateStudent(ctx context.Context, std school.Student) (school.Student, error) {
	query := `
		UPDATE student
		SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone, address = :address,
		    date_of_birth = :date_of_birth, admission_date = :admission_date, class_id = :class_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, packStudent(std))
	if err != nil {
		return school.Student{}, errors.Wrap(err, "updating student")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return std, nil
}

func (repo schoolRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

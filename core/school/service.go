package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrClassExists     = errors.New("a class with this name already exists")
)

type (
	Repository interface {
		CheckClassNameUniqueness(ctx context.Context, name string, excludedClasses ...Class) error
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, teacherID string, ordering []core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClassesByID(ctx context.Context, ids ...string) error

		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, classID string, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckClassNameUniqueness(ctx context.Context, name string, exclClasses ...Class) error
		CreateClass(ctx context.Context, nc NewClass) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, teacherID string, ordering []core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error)
		DeleteClasses(ctx context.Context, ids ...string) error

		CreateStudent(ctx context.Context, ns NewStudent) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, classID string, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error)
		DeleteStudents(ctx context.Context, ids ...string) error

		// IsEnrolled reports whether the student is currently enrolled in the class.
		IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) CheckClassNameUniqueness(ctx context.Context, name string, exclClasses ...Class) error {
	if err := svc.repo.CheckClassNameUniqueness(ctx, name, exclClasses...); err != nil {
		if errors.Cause(err) != ErrClassExists {
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: "class_name", Error: err.Error()})
	}
	return nil
}

func (svc *service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:         nc.Name,
		Description:  nc.Description,
		Capacity:     nc.Capacity,
		AcademicYear: nc.AcademicYear,
		Semester:     nc.Semester,
		TeacherID:    nc.TeacherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) QueryClasses(ctx context.Context, teacherID string, ordering []core.DBOrdering) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, teacherID, ordering)
}

func (svc *service) UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}
	cls.Name = uc.Name
	if uc.Description != nil {
		cls.Description = *uc.Description
	}
	if uc.Capacity > 0 {
		cls.Capacity = uc.Capacity
	}
	if uc.AcademicYear != "" {
		cls.AcademicYear = uc.AcademicYear
	}
	if uc.Semester != "" {
		cls.Semester = uc.Semester
	}
	if uc.TeacherID != "" {
		cls.TeacherID = uc.TeacherID
	}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *service) DeleteClasses(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClassesByID(ctx, ids...)
}

func (svc *service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetClass(ctx, ns.ClassID); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	std := Student{
		FirstName:     ns.FirstName,
		LastName:      ns.LastName,
		Email:         ns.Email,
		Phone:         ns.Phone,
		Address:       ns.Address,
		DateOfBirth:   ns.DateOfBirth,
		AdmissionDate: ns.AdmissionDate,
		ClassID:       ns.ClassID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) QueryStudents(ctx context.Context, classID string, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, classID, ordering)
}

func (svc *service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.ClassID != std.ClassID {
		if _, err = svc.repo.GetClass(ctx, us.ClassID); err != nil {
			return Student{}, err
		}
	}
	std.FirstName = us.FirstName
	std.LastName = us.LastName
	std.Email = us.Email
	if us.Phone != "" {
		std.Phone = us.Phone
	}
	if us.Address != "" {
		std.Address = us.Address
	}
	std.ClassID = us.ClassID
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *service) DeleteStudents(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

func (svc *service) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	std, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return false, err
	}
	return std.ClassID == classID, nil
}

package school

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Semesters
const (
	SemesterFall   = "Fall"
	SemesterSpring = "Spring"
	SemesterSummer = "Summer"
)

var Semesters = []string{SemesterFall, SemesterSpring, SemesterSummer}

type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"class_name"`
	Description  string    `json:"description,omitempty"`
	Capacity     int       `json:"capacity"`
	AcademicYear string    `json:"academic_year"`
	Semester     string    `json:"semester"`
	TeacherID    string    `json:"teacher_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type Student struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone_no,omitempty"`
	Address       string    `json:"address,omitempty"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	AdmissionDate time.Time `json:"admission_date"`
	ClassID       string    `json:"class_id"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// FullName derives a Student's display name.
func FullName(s Student) string {
	return s.FirstName + " " + s.LastName
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name         string `json:"class_name" validate:"required"`
	Description  string `json:"description"`
	Capacity     int    `json:"capacity" validate:"omitempty,min=1"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"omitempty,semester"`
	TeacherID    string `json:"teacher_id" validate:"required"`
}

func (nc *NewClass) Validate(ctx context.Context, validate *validator.Validate, _ ut.Translator, svc ServiceInterface) error {
	nc.Name = core.CleanString(nc.Name)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	if nc.Semester == "" {
		nc.Semester = SemesterFall
	}
	if nc.Capacity == 0 {
		nc.Capacity = 30
	}
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckClassNameUniqueness(ctx, nc.Name)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name         string  `json:"class_name"`
	Description  *string `json:"description"`
	Capacity     int     `json:"capacity" validate:"omitempty,min=1"`
	AcademicYear string  `json:"academic_year"`
	Semester     string  `json:"semester" validate:"omitempty,semester"`
	TeacherID    string  `json:"teacher_id"`
}

func (uc *UpdateClass) Validate(ctx context.Context, validate *validator.Validate, origCls Class, svc ServiceInterface) error {
	if name := core.CleanString(uc.Name); name != "" && name != origCls.Name {
		uc.Name = name
		if err := svc.CheckClassNameUniqueness(ctx, name); err != nil {
			return err
		}
	} else {
		uc.Name = origCls.Name
	}
	return validate.Struct(uc)
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	FirstName     string    `json:"first_name" validate:"required"`
	LastName      string    `json:"last_name" validate:"required"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         string    `json:"phone_no"`
	Address       string    `json:"address"`
	DateOfBirth   time.Time `json:"date_of_birth" validate:"required"`
	AdmissionDate time.Time `json:"admission_date"`
	ClassID       string    `json:"class_id" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	if ns.AdmissionDate.IsZero() {
		ns.AdmissionDate = time.Now().UTC()
	}
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone_no"`
	Address   string `json:"address"`
	ClassID   string `json:"class_id"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate, origStd Student) error {
	if fname := core.CleanString(us.FirstName); fname != "" {
		us.FirstName = fname
	} else {
		us.FirstName = origStd.FirstName
	}
	if lname := core.CleanString(us.LastName); lname != "" {
		us.LastName = lname
	} else {
		us.LastName = origStd.LastName
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = origStd.Email
	}
	if us.ClassID == "" {
		us.ClassID = origStd.ClassID
	}
	return validate.Struct(us)
}

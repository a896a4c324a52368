package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

type fixtures struct {
	svc      attendance.ServiceInterface
	repo     attendance.Repository
	students school.Repository

	teacher      user.User
	otherTeacher user.User
	admin        user.User
	class        school.Class
	otherClass   school.Class
	std1, std2   school.Student
	outsider     school.Student
}

func setup(t *testing.T) *fixtures {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()

	schoolRepo := inmemdb.NewSchoolRepository(db)
	schoolSvc := school.NewService(schoolRepo)
	attRepo := inmemdb.NewAttendanceRepository(db)
	svc := attendance.NewService(attRepo, schoolSvc, school.NewGate(schoolRepo))

	f := &fixtures{svc: svc, repo: attRepo, students: schoolRepo}

	f.teacher = user.User{Name: "Teacher", Roles: []string{user.RoleTeacher}, IsActive: true}
	f.otherTeacher = user.User{Name: "Other", Roles: []string{user.RoleTeacher}, IsActive: true}
	f.admin = user.User{Name: "Admin", Roles: []string{user.RoleAdmin}, IsActive: true}

	usrRepo := inmemdb.NewUserRepository(db)
	var err error
	if f.teacher, err = usrRepo.CreateUser(ctx, f.teacher); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	if f.otherTeacher, err = usrRepo.CreateUser(ctx, f.otherTeacher); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	if f.admin, err = usrRepo.CreateUser(ctx, f.admin); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	f.class = createClass(t, schoolRepo, "Form 4 East", f.teacher.ID)
	f.otherClass = createClass(t, schoolRepo, "Form 2 West", f.otherTeacher.ID)
	f.std1 = createStudent(t, schoolRepo, "Asha", "Mwangi", "asha@test.cd", f.class.ID)
	f.std2 = createStudent(t, schoolRepo, "Baraka", "Otieno", "baraka@test.cd", f.class.ID)
	f.outsider = createStudent(t, schoolRepo, "Chiku", "Njoroge", "chiku@test.cd", f.otherClass.ID)
	return f
}

func createClass(t *testing.T, repo school.Repository, name, teacherID string) school.Class {
	t.Helper()
	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), school.Class{
		Name:         name,
		Capacity:     30,
		AcademicYear: "2025-2026",
		Semester:     school.SemesterFall,
		TeacherID:    teacherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func createStudent(t *testing.T, repo school.Repository, fname, lname, email, classID string) school.Student {
	t.Helper()
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), school.Student{
		FirstName:     fname,
		LastName:      lname,
		Email:         email,
		DateOfBirth:   time.Date(2010, time.May, 12, 0, 0, 0, 0, time.UTC),
		AdmissionDate: now,
		ClassID:       classID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func entry(classID, studentID, date, status string) attendance.NewRecord {
	return attendance.NewRecord{ClassID: classID, StudentID: studentID, Date: date, Status: status}
}

func Test_service_RecordBulk(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.RecordBulk(ctx, f.teacher, []attendance.NewRecord{
		entry(f.class.ID, f.std1.ID, "2026-03-02", attendance.StatusPresent),
		entry(f.class.ID, f.std2.ID, "2026-03-02", attendance.StatusAbsent),
	})
	if err != nil {
		t.Fatalf("RecordBulk() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d; want 2", res.Total)
	}
	for i, r := range res.Results {
		if r.Action != attendance.ActionCreated {
			t.Errorf("Results[%d].Action = %s; want created", i, r.Action)
		}
		if r.Record.MarkedBy != f.teacher.ID {
			t.Errorf("Results[%d].Record.MarkedBy = %s; want %s", i, r.Record.MarkedBy, f.teacher.ID)
		}
	}

	// re-submitting the same day mutates in place: no duplicate rows
	res, err = f.svc.RecordBulk(ctx, f.teacher, []attendance.NewRecord{
		entry(f.class.ID, f.std1.ID, "2026-03-02", attendance.StatusLate),
	})
	if err != nil {
		t.Fatalf("RecordBulk() error = %v", err)
	}
	if res.Results[0].Action != attendance.ActionUpdated {
		t.Errorf("Action = %s; want updated", res.Results[0].Action)
	}
	if res.Results[0].Record.Status != attendance.StatusLate {
		t.Errorf("Status = %s; want late", res.Results[0].Record.Status)
	}

	records, err := f.repo.QueryRecordsByDay(ctx, f.class.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("QueryRecordsByDay() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d; want 2", len(records))
	}
}

func Test_service_RecordBulk_abortsOnFirstError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RecordBulk(ctx, f.teacher, []attendance.NewRecord{
		entry(f.class.ID, f.std1.ID, "2026-03-03", attendance.StatusPresent),
		entry(f.class.ID, f.outsider.ID, "2026-03-03", attendance.StatusPresent), // not enrolled
		entry(f.class.ID, f.std2.ID, "2026-03-03", attendance.StatusPresent),
	})
	var bulkErr *attendance.BulkError
	if !errors.As(err, &bulkErr) {
		t.Fatalf("RecordBulk() error = %v; want *BulkError", err)
	}
	if bulkErr.Index != 1 || bulkErr.Committed != 1 {
		t.Errorf("BulkError = {Index: %d, Committed: %d}; want {1, 1}", bulkErr.Index, bulkErr.Committed)
	}
	if errors.Cause(bulkErr.Err) != attendance.ErrNotEnrolled {
		t.Errorf("BulkError.Err = %v; want ErrNotEnrolled", bulkErr.Err)
	}

	// the entry before the failure stays committed, the one after was never written
	records, err := f.repo.QueryRecordsByDay(ctx, f.class.ID, "2026-03-03")
	if err != nil {
		t.Fatalf("QueryRecordsByDay() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d; want 1", len(records))
	}
	if records[0].StudentID != f.std1.ID {
		t.Errorf("committed record StudentID = %s; want %s", records[0].StudentID, f.std1.ID)
	}
}

func Test_service_RecordBulk_errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		usr     user.User
		entries []attendance.NewRecord
		wantErr error
	}{
		{
			name:    "unknown class",
			usr:     f.teacher,
			entries: []attendance.NewRecord{entry("cc09c2ec-56ab-4d09-a44d-75c64bfd7726", f.std1.ID, "2026-03-04", attendance.StatusPresent)},
			wantErr: school.ErrClassNotFound,
		},
		{
			name:    "not class owner",
			usr:     f.otherTeacher,
			entries: []attendance.NewRecord{entry(f.class.ID, f.std1.ID, "2026-03-04", attendance.StatusPresent)},
			wantErr: attendance.ErrNotClassOwner,
		},
		{
			name:    "unknown student",
			usr:     f.teacher,
			entries: []attendance.NewRecord{entry(f.class.ID, "e06f7a7f-; not a real id", "2026-03-04", attendance.StatusPresent)},
			wantErr: school.ErrStudentNotFound,
		},
		{
			name:    "invalid date",
			usr:     f.teacher,
			entries: []attendance.NewRecord{entry(f.class.ID, f.std1.ID, "04/03/2026", attendance.StatusPresent)},
			wantErr: attendance.ErrInvalidDay,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordBulk(ctx, tt.usr, tt.entries)
			var bulkErr *attendance.BulkError
			if !errors.As(err, &bulkErr) {
				t.Fatalf("RecordBulk() error = %v; want *BulkError", err)
			}
			if errors.Cause(bulkErr.Err) != tt.wantErr {
				t.Errorf("BulkError.Err = %v; want %v", bulkErr.Err, tt.wantErr)
			}
		})
	}

	t.Run("admin override", func(t *testing.T) {
		res, err := f.svc.RecordBulk(ctx, f.admin, []attendance.NewRecord{
			entry(f.class.ID, f.std1.ID, "2026-03-04", attendance.StatusExcused),
		})
		if err != nil {
			t.Fatalf("RecordBulk() error = %v", err)
		}
		if res.Total != 1 {
			t.Errorf("Total = %d; want 1", res.Total)
		}
	})
}

func Test_service_UpdateGetDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.RecordBulk(ctx, f.teacher, []attendance.NewRecord{
		entry(f.class.ID, f.std1.ID, "2026-03-05", attendance.StatusAbsent),
	})
	if err != nil {
		t.Fatalf("RecordBulk() error = %v", err)
	}
	rec := res.Results[0].Record

	if _, err = f.svc.Get(ctx, f.otherTeacher, rec.ID); errors.Cause(err) != attendance.ErrNotClassOwner {
		t.Errorf("Get() as non-owner error = %v; want ErrNotClassOwner", err)
	}

	notes := "arrived at 9:15"
	updated, err := f.svc.Update(ctx, f.teacher, rec.ID, attendance.UpdateRecord{Status: attendance.StatusLate, Notes: &notes})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != attendance.StatusLate || updated.Notes != notes {
		t.Errorf("Update() = {%s %q}", updated.Status, updated.Notes)
	}

	got, err := f.svc.Get(ctx, f.admin, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != attendance.StatusLate {
		t.Errorf("Get().Status = %s; want late", got.Status)
	}

	if err = f.svc.Delete(ctx, f.otherTeacher, rec.ID); errors.Cause(err) != attendance.ErrNotClassOwner {
		t.Errorf("Delete() as non-owner error = %v; want ErrNotClassOwner", err)
	}
	if err = f.svc.Delete(ctx, f.teacher, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err = f.svc.Get(ctx, f.teacher, rec.ID); errors.Cause(err) != attendance.ErrRecordNotFound {
		t.Errorf("Get() after delete error = %v; want ErrRecordNotFound", err)
	}
}

func Test_service_Summarize(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	seed := []attendance.NewRecord{
		entry(f.class.ID, f.std1.ID, "2026-03-02", attendance.StatusPresent),
		entry(f.class.ID, f.std1.ID, "2026-03-03", attendance.StatusAbsent),
		entry(f.class.ID, f.std1.ID, "2026-03-04", attendance.StatusLate),
		entry(f.class.ID, f.std2.ID, "2026-03-02", attendance.StatusPresent),
		entry(f.class.ID, f.std2.ID, "2026-03-03", attendance.StatusPresent),
		// boundary probes: one on each edge, one outside each edge
		entry(f.class.ID, f.std2.ID, "2026-03-01", attendance.StatusExcused),
		entry(f.class.ID, f.std2.ID, "2026-02-28", attendance.StatusAbsent),
		entry(f.class.ID, f.std1.ID, "2026-03-05", attendance.StatusPresent),
	}
	if _, err := f.svc.RecordBulk(ctx, f.teacher, seed); err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	sum, err := f.svc.Summarize(ctx, f.teacher, f.class.ID, attendance.DateRange{Start: "2026-03-01", End: "2026-03-04"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	// both boundary days count, the days outside do not
	if sum.TotalRecords != 6 {
		t.Errorf("TotalRecords = %d; want 6", sum.TotalRecords)
	}
	if len(sum.Students) != 2 {
		t.Fatalf("len(Students) = %d; want 2", len(sum.Students))
	}

	byID := make(map[string]attendance.StudentSummary, len(sum.Students))
	for _, ss := range sum.Students {
		byID[ss.Student.ID] = ss
		// status sub-counts always sum to the student's total
		if got := ss.Present + ss.Absent + ss.Late + ss.Excused; got != ss.Total {
			t.Errorf("counts for %s sum to %d; Total = %d", ss.Student.ID, got, ss.Total)
		}
	}

	s1 := byID[f.std1.ID]
	if s1.Total != 3 || s1.Present != 1 || s1.Absent != 1 || s1.Late != 1 {
		t.Errorf("std1 summary = %+v", s1)
	}
	if s1.Student.FirstName != "Asha" || s1.Student.Email != "asha@test.cd" {
		t.Errorf("std1 info = %+v", s1.Student)
	}

	s2 := byID[f.std2.ID]
	if s2.Total != 3 || s2.Present != 2 || s2.Excused != 1 {
		t.Errorf("std2 summary = %+v", s2)
	}

	t.Run("deleted student degrades to ID-only", func(t *testing.T) {
		if err := f.students.DeleteStudentsByID(ctx, f.std2.ID); err != nil {
			t.Fatalf("DeleteStudentsByID() failed: %v", err)
		}
		sum, err := f.svc.Summarize(ctx, f.teacher, f.class.ID, attendance.DateRange{Start: "2026-03-01", End: "2026-03-04"})
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		for _, ss := range sum.Students {
			if ss.Student.ID == f.std2.ID && ss.Student.FirstName != "" {
				t.Errorf("deleted student info = %+v; want ID only", ss.Student)
			}
		}
	})

	t.Run("forbidden for non-owner", func(t *testing.T) {
		_, err := f.svc.Summarize(ctx, f.otherTeacher, f.class.ID, attendance.DateRange{Start: "2026-03-01", End: "2026-03-04"})
		if errors.Cause(err) != attendance.ErrNotClassOwner {
			t.Errorf("Summarize() error = %v; want ErrNotClassOwner", err)
		}
	})

	t.Run("empty range", func(t *testing.T) {
		sum, err := f.svc.Summarize(ctx, f.teacher, f.class.ID, attendance.DateRange{Start: "2027-01-01", End: "2027-01-31"})
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		if sum.TotalRecords != 0 || len(sum.Students) != 0 {
			t.Errorf("Summarize() = %+v; want empty", sum)
		}
	})
}

func Test_repository_uniqueTriple(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rec := attendance.Record{
		ClassID:   f.class.ID,
		StudentID: f.std1.ID,
		Date:      "2026-03-06",
		Status:    attendance.StatusPresent,
		MarkedBy:  f.teacher.ID,
	}
	if _, err := f.repo.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if _, err := f.repo.CreateRecord(ctx, rec); errors.Cause(err) != attendance.ErrConflict {
		t.Errorf("CreateRecord() duplicate error = %v; want ErrConflict", err)
	}

	// same student, different day or class is fine
	rec.Date = "2026-03-07"
	if _, err := f.repo.CreateRecord(ctx, rec); err != nil {
		t.Errorf("CreateRecord() on new day error = %v", err)
	}
}

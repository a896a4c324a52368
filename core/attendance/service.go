package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// Upsert actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

var (
	// errors
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrNotClassOwner  = errors.New("you can only manage attendance for your own classes")
	ErrNotEnrolled    = errors.New("student is not enrolled in this class")
	// ErrConflict signals a uniqueness race at the storage layer: a concurrent
	// writer created the (class, student, day) record first. Callers retry as
	// an upsert instead of surfacing it.
	ErrConflict = errors.New("attendance record already exists for this student and date")
)

// BulkError aborts a bulk recording at the first failing entry. Entries
// written before Index stay committed; there is no rollback.
type BulkError struct {
	Index     int // position of the failing entry
	Committed int // number of entries already written
	Err       error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk recording aborted at entry %d (%d committed): %v", e.Index, e.Committed, e.Err)
}

func (e *BulkError) Cause() error  { return e.Err }
func (e *BulkError) Unwrap() error { return e.Err }

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// FindRecord looks a record up by its natural (class, student, day) key.
		FindRecord(ctx context.Context, classID, studentID string, day Day) (Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		QueryRecordsByDay(ctx context.Context, classID string, day Day) ([]Record, error)
		// QueryRecordsByRange returns records inclusive of both bounds.
		QueryRecordsByRange(ctx context.Context, classID string, start, end Day) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, id string) error
	}

	// AuthorizationGate decides whether a user may manage a class's attendance.
	AuthorizationGate interface {
		OwnsClass(ctx context.Context, usr user.User, classID string) (bool, error)
		IsAdminOverride(usr user.User) bool
	}

	// Directory resolves classes and students for validation and display enrichment.
	Directory interface {
		GetClass(ctx context.Context, id string) (school.Class, error)
		GetStudent(ctx context.Context, id string) (school.Student, error)
		IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	}

	ServiceInterface interface {
		RecordBulk(ctx context.Context, usr user.User, entries []NewRecord) (BulkResult, error)
		ByDay(ctx context.Context, usr user.User, classID string, day Day) ([]Record, error)
		Get(ctx context.Context, usr user.User, id string) (Record, error)
		Update(ctx context.Context, usr user.User, id string, ur UpdateRecord) (Record, error)
		Delete(ctx context.Context, usr user.User, id string) error
		Summarize(ctx context.Context, usr user.User, classID string, rng DateRange) (Summary, error)
	}

	service struct {
		repo Repository
		dir  Directory
		gate AuthorizationGate
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, dir Directory, gate AuthorizationGate) *service {
	return &service{repo: repo, dir: dir, gate: gate}
}

// authorize allows class owners and admin-override users through; everyone
// else gets ErrNotClassOwner.
func (svc *service) authorize(ctx context.Context, usr user.User, classID string) error {
	if svc.gate.IsAdminOverride(usr) {
		return nil
	}
	owns, err := svc.gate.OwnsClass(ctx, usr, classID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrNotClassOwner
	}
	return nil
}

type (
	BulkEntryResult struct {
		Action string `json:"action"`
		Record Record `json:"record"`
	}

	BulkResult struct {
		Results []BulkEntryResult `json:"results"`
		Total   int               `json:"total"`
	}
)

// RecordBulk applies a full-roster attendance submission, strictly in order.
// Each entry is resolved, authorized and verified before it is written; the
// first failing entry aborts the batch with a BulkError while earlier writes
// stay committed. Callers cannot assume all-or-nothing semantics.
func (svc *service) RecordBulk(ctx context.Context, usr user.User, entries []NewRecord) (BulkResult, error) {
	res := BulkResult{Results: make([]BulkEntryResult, 0, len(entries))}
	for i, entry := range entries {
		rec, action, err := svc.recordOne(ctx, usr, entry)
		if err != nil {
			return res, &BulkError{Index: i, Committed: len(res.Results), Err: err}
		}
		res.Results = append(res.Results, BulkEntryResult{Action: action, Record: rec})
		res.Total++
	}
	return res, nil
}

func (svc *service) recordOne(ctx context.Context, usr user.User, entry NewRecord) (Record, string, error) {
	if _, err := svc.dir.GetClass(ctx, entry.ClassID); err != nil {
		return Record{}, "", err
	}
	if err := svc.authorize(ctx, usr, entry.ClassID); err != nil {
		return Record{}, "", err
	}

	enrolled, err := svc.dir.IsEnrolled(ctx, entry.StudentID, entry.ClassID)
	if err != nil {
		return Record{}, "", err
	}
	if !enrolled {
		return Record{}, "", ErrNotEnrolled
	}

	day, err := ParseDay(entry.Date)
	if err != nil {
		return Record{}, "", err
	}
	return svc.upsert(ctx, entry.ClassID, entry.StudentID, day, entry.Status, entry.Notes, usr.ID)
}

// upsert creates the (class, student, day) record or mutates it in place.
// The storage uniqueness constraint is authoritative: losing a creation race
// to a concurrent writer downgrades this call to an update, so the slower
// writer's data becomes the final state (last-committed-wins; no optimistic
// lock token is offered).
func (svc *service) upsert(ctx context.Context, classID, studentID string, day Day, status, notes, markedBy string) (Record, string, error) {
	rec, err := svc.repo.FindRecord(ctx, classID, studentID, day)
	switch errors.Cause(err) {
	case nil:
		rec, err = svc.mutate(ctx, rec, status, notes, markedBy)
		return rec, ActionUpdated, err

	case ErrRecordNotFound:
		now := time.Now().UTC()
		rec = Record{
			ClassID:   classID,
			StudentID: studentID,
			Date:      day,
			Status:    status,
			Notes:     notes,
			MarkedBy:  markedBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created, cerr := svc.repo.CreateRecord(ctx, rec)
		if errors.Cause(cerr) == ErrConflict {
			// lost the race; retry as an update
			if rec, err = svc.repo.FindRecord(ctx, classID, studentID, day); err != nil {
				return Record{}, "", err
			}
			rec, err = svc.mutate(ctx, rec, status, notes, markedBy)
			return rec, ActionUpdated, err
		}
		return created, ActionCreated, cerr

	default:
		return Record{}, "", err
	}
}

func (svc *service) mutate(ctx context.Context, rec Record, status, notes, markedBy string) (Record, error) {
	rec.Status = status
	rec.Notes = notes
	rec.MarkedBy = markedBy
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

// ByDay lists a class's records for a single day.
func (svc *service) ByDay(ctx context.Context, usr user.User, classID string, day Day) ([]Record, error) {
	if _, err := svc.dir.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	if err := svc.authorize(ctx, usr, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRecordsByDay(ctx, classID, day)
}

func (svc *service) Get(ctx context.Context, usr user.User, id string) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err = svc.authorize(ctx, usr, rec.ClassID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (svc *service) Update(ctx context.Context, usr user.User, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err = svc.authorize(ctx, usr, rec.ClassID); err != nil {
		return Record{}, err
	}

	if ur.Status != "" {
		rec.Status = ur.Status
	}
	if ur.Notes != nil {
		rec.Notes = *ur.Notes
	}
	rec.MarkedBy = usr.ID
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) Delete(ctx context.Context, usr user.User, id string) error {
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.authorize(ctx, usr, rec.ClassID); err != nil {
		return err
	}
	return svc.repo.DeleteRecord(ctx, id)
}

// Summarize reduces a class's records within the inclusive day range into
// per-student status counts. Students with no records in range are omitted;
// output order is unspecified, consumers sort explicitly if they care.
func (svc *service) Summarize(ctx context.Context, usr user.User, classID string, rng DateRange) (Summary, error) {
	if _, err := svc.dir.GetClass(ctx, classID); err != nil {
		return Summary{}, err
	}
	if err := svc.authorize(ctx, usr, classID); err != nil {
		return Summary{}, err
	}

	records, err := svc.repo.QueryRecordsByRange(ctx, classID, rng.Start, rng.End)
	if err != nil {
		return Summary{}, err
	}

	stats := make(map[string]*StudentSummary)
	for _, rec := range records {
		ss, ok := stats[rec.StudentID]
		if !ok {
			ss = &StudentSummary{Student: svc.studentInfo(ctx, rec.StudentID)}
			stats[rec.StudentID] = ss
		}
		ss.Total++
		switch rec.Status {
		case StatusPresent:
			ss.Present++
		case StatusAbsent:
			ss.Absent++
		case StatusLate:
			ss.Late++
		case StatusExcused:
			ss.Excused++
		}
	}

	sum := Summary{
		ClassID:      classID,
		Range:        rng,
		Students:     make([]StudentSummary, 0, len(stats)),
		TotalRecords: len(records),
	}
	for _, ss := range stats {
		sum.Students = append(sum.Students, *ss)
	}
	return sum, nil
}

// studentInfo enriches a summary entry; a student deleted since their records
// were written degrades to an ID-only entry.
func (svc *service) studentInfo(ctx context.Context, studentID string) StudentInfo {
	std, err := svc.dir.GetStudent(ctx, studentID)
	if err != nil {
		return StudentInfo{ID: studentID}
	}
	return StudentInfo{ID: std.ID, FirstName: std.FirstName, LastName: std.LastName, Email: std.Email}
}

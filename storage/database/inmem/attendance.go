package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) find(classID, studentID string, day attendance.Day) *attendance.Record {
	for _, rec := range repo.db.table {
		if rec.ClassID == classID && rec.StudentID == studentID && rec.Date == day {
			return rec
		}
	}
	return nil
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// the unique (class, student, day) key is authoritative
	if repo.find(rec.ClassID, rec.StudentID, rec.Date) != nil {
		return attendance.Record{}, attendance.ErrConflict
	}
	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) FindRecord(_ context.Context, classID, studentID string, day attendance.Day) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec := repo.find(classID, studentID, day); rec != nil {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) GetRecord(_ context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) QueryRecordsByDay(ctx context.Context, classID string, day attendance.Day) ([]attendance.Record, error) {
	return repo.QueryRecordsByRange(ctx, classID, day, day)
}

func (repo *attendanceRepository) QueryRecordsByRange(_ context.Context, classID string, start, end attendance.Day) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.table {
		if rec.ClassID != classID {
			continue
		}
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecord(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return attendance.ErrRecordNotFound
	}
	delete(repo.db.table, id)
	return nil
}

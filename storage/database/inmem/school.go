package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	classes  *classTable
	students *studentTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{classes: db.class, students: db.student}
}

func (repo *schoolRepository) CheckClassNameUniqueness(_ context.Context, name string, excludedClasses ...school.Class) error {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	excluded := make(map[string]bool, len(excludedClasses))
	for _, c := range excludedClasses {
		excluded[c.ID] = true
	}
	for _, cls := range repo.classes.table {
		if strings.EqualFold(cls.Name, name) && !excluded[cls.ID] {
			return school.ErrClassExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	cls.ID = uuid.New().String()
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) GetClass(_ context.Context, id string) (school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	if cls, ok := repo.classes.table[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) QueryClasses(_ context.Context, teacherID string, _ []core.DBOrdering) ([]school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	classes := make([]school.Class, 0, len(repo.classes.table))
	for _, cls := range repo.classes.table {
		if teacherID != "" && cls.TeacherID != teacherID {
			continue
		}
		classes = append(classes, *cls)
	}
	return classes, nil
}

func (repo *schoolRepository) UpdateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	if _, ok := repo.classes.table[cls.ID]; !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) DeleteClassesByID(_ context.Context, ids ...string) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()
	for _, id := range ids {
		delete(repo.classes.table, id)
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, std school.Student) (school.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	std.ID = uuid.New().String()
	repo.students.table[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) GetStudent(_ context.Context, id string) (school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	if std, ok := repo.students.table[id]; ok {
		return *std, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QueryStudents(_ context.Context, classID string, _ []core.DBOrdering) ([]school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	students := make([]school.Student, 0, len(repo.students.table))
	for _, std := range repo.students.table {
		if classID != "" && std.ClassID != classID {
			continue
		}
		students = append(students, *std)
	}
	return students, nil
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, std school.Student) (school.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	if _, ok := repo.students.table[std.ID]; !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	repo.students.table[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.students.Lock()
	defer repo.students.Unlock()
	for _, id := range ids {
		delete(repo.students.table, id)
	}
	return nil
}

// Package inmemdb provides mutex-guarded in-memory repositories. They back
// the test suites and local tinkering; production runs on PostgreSQL.
package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	DB struct {
		user       *userTable
		class      *classTable
		student    *studentTable
		attendance *attendanceTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*school.Student
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		class:      &classTable{table: make(map[string]*school.Class)},
		student:    &studentTable{table: make(map[string]*school.Student)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
	}
}

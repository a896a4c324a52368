package attendance

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

func ValidStatus(status string) bool {
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

const dayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid date: must be YYYY-MM-DD")

// Day is a calendar day in ISO form (YYYY-MM-DD), with no time-of-day or
// timezone significance. ISO day strings order lexicographically, so Day
// comparisons are plain string comparisons.
type Day string

// DayOf returns the calendar day containing t, in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// ParseDay normalizes a day string to its canonical YYYY-MM-DD form.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, core.CleanString(s))
	if err != nil {
		return "", ErrInvalidDay
	}
	return DayOf(t), nil
}

// Time returns the first instant of the day in UTC.
func (d Day) Time() time.Time {
	t, _ := time.Parse(dayLayout, string(d))
	return t
}

func (d Day) String() string { return string(d) }

func (d Day) Before(other Day) bool { return d < other }
func (d Day) After(other Day) bool  { return d > other }

// AddDays returns the day n calendar days after d (or before, for negative n).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// DisplayDate formats a Day for human-facing output, e.g. "January 2, 2006".
func DisplayDate(d Day) string {
	return d.Time().Format("January 2, 2006")
}

// Record is a single student's attendance mark for one class on one calendar
// day. At most one Record exists per (ClassID, StudentID, Date) triple; writes
// targeting an existing triple mutate it in place. No history of prior
// statuses is kept.
type Record struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	Date      Day       `json:"date"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	MarkedBy  string    `json:"marked_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewRecord contains one entry of a bulk attendance submission.
type NewRecord struct {
	ClassID   string `json:"class_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required,day"`
	Status    string `json:"status" validate:"required,attendancestatus"`
	Notes     string `json:"notes"`
}

// UpdateRecord defines what information may be provided to modify an existing Record.
type UpdateRecord struct {
	Status string  `json:"status" validate:"omitempty,attendancestatus"`
	Notes  *string `json:"notes"`
}

// StudentInfo identifies a student in summary and report output.
type StudentInfo struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// StudentSummary aggregates one student's records within a date range.
// The four status counts always sum to Total.
type StudentSummary struct {
	Student StudentInfo `json:"student"`
	Total   int         `json:"total"`
	Present int         `json:"present"`
	Absent  int         `json:"absent"`
	Late    int         `json:"late"`
	Excused int         `json:"excused"`
}

// StatusCount returns the summary's sub-count for the given status.
func (ss StudentSummary) StatusCount(status string) int {
	switch status {
	case StatusPresent:
		return ss.Present
	case StatusAbsent:
		return ss.Absent
	case StatusLate:
		return ss.Late
	case StatusExcused:
		return ss.Excused
	}
	return 0
}

// Summary holds per-student aggregates for a class over a date range.
// Students with no records in range are omitted; ordering is unspecified.
type Summary struct {
	ClassID      string           `json:"class_id"`
	Range        DateRange        `json:"range"`
	Students     []StudentSummary `json:"summary"`
	TotalRecords int              `json:"totalRecords"`
}

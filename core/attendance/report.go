package attendance

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

type (
	// ReportRow is one student's line in a single-status report.
	ReportRow struct {
		StudentID   string  `json:"student_id"`
		StudentName string  `json:"student_name"`
		Email       string  `json:"email"`
		StatusCount int     `json:"status_count"`
		Total       int     `json:"total"`
		Percentage  float64 `json:"percentage"`
	}

	// Report is a pure projection of an already-fetched Summary for one
	// status: it never re-queries the store.
	Report struct {
		Status string      `json:"status"`
		Range  DateRange   `json:"range"`
		Rows   []ReportRow `json:"rows"`
	}
)

// ProjectReport filters a summary down to students with at least one record of
// the selected status, sorted by descending count. Ties break on ascending
// student ID to keep the output reproducible. Percentages are of the student's
// total records in range, rounded to one decimal place.
func ProjectReport(sum Summary, status string) Report {
	rep := Report{Status: status, Range: sum.Range, Rows: make([]ReportRow, 0, len(sum.Students))}

	for _, ss := range sum.Students {
		cnt := ss.StatusCount(status)
		if cnt == 0 {
			continue
		}
		name := strings.TrimSpace(ss.Student.FirstName + " " + ss.Student.LastName)
		rep.Rows = append(rep.Rows, ReportRow{
			StudentID:   ss.Student.ID,
			StudentName: name,
			Email:       ss.Student.Email,
			StatusCount: cnt,
			Total:       ss.Total,
			Percentage:  roundPct(cnt, ss.Total),
		})
	}

	sort.Slice(rep.Rows, func(i, j int) bool {
		if rep.Rows[i].StatusCount != rep.Rows[j].StatusCount {
			return rep.Rows[i].StatusCount > rep.Rows[j].StatusCount
		}
		return rep.Rows[i].StudentID < rep.Rows[j].StudentID
	})
	return rep
}

func roundPct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

var csvHeader = []string{"Student Name", "Email", "Status Count", "Total Classes", "Percentage"}

// WriteCSV renders the report as comma-delimited text. Every field is
// double-quoted, including numeric ones; the dashboard importer expects
// that exact shape.
func (rep Report) WriteCSV(w io.Writer) error {
	if err := writeCSVRow(w, csvHeader); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		email := row.Email
		if email == "" {
			email = "N/A"
		}
		fields := []string{
			row.StudentName,
			email,
			strconv.Itoa(row.StatusCount),
			strconv.Itoa(row.Total),
			strconv.FormatFloat(row.Percentage, 'f', 1, 64) + "%",
		}
		if err := writeCSVRow(w, fields); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, fields []string) error {
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}

// CSVFilename names a report download, e.g. attendance_report_present_week.csv.
func CSVFilename(status, timeframe string) string {
	if timeframe == "" {
		timeframe = "custom"
	}
	return fmt.Sprintf("attendance_report_%s_%s.csv", status, timeframe)
}

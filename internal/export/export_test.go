package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/studybat/internal/tracker"
)

func sampleData() ([]tracker.Assignment, []tracker.StudySession) {
	due := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assignments := []tracker.Assignment{
		{
			ID:           "a1",
			Title:        "Essay",
			Subject:      "History",
			Description:  "Causes of WW1",
			DueDate:      due,
			Priority:     tracker.PriorityHigh,
			Status:       tracker.StatusPending,
			ExpectedTime: 90,
			TimeSpent:    3600,
			Files:        []tracker.FileMeta{{Name: "notes.txt", Size: 5, Type: "text/plain", Ref: "b1"}},
			CreatedAt:    created,
		},
		{
			ID:        "a2",
			Title:     "Lab report",
			Subject:   "Chemistry",
			DueDate:   due.AddDate(0, 0, 2),
			Priority:  tracker.PriorityMedium,
			Status:    tracker.StatusCompleted,
			Grade:     "92",
			TimeSpent: 1800,
			Files:     []tracker.FileMeta{},
			CreatedAt: created,
		},
	}

	sessions := []tracker.StudySession{
		{ID: "s1", Date: created, Duration: 1500, Subject: "History"},
		{ID: "s2", Date: created.Add(time.Hour), Duration: 61, Subject: tracker.DefaultSubject},
	}

	return assignments, sessions
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	assignments, _ := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(assignments, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "a1" || row[1] != "Essay" || row[2] != "History" {
		t.Fatalf("unexpected identity columns: %v", row[:3])
	}
	if row[3] != "high" || row[4] != "pending" {
		t.Fatalf("priority/status = %q/%q", row[3], row[4])
	}
	if row[7] != "90" {
		t.Fatalf("Expected (min) = %q, want 90", row[7])
	}
	if row[8] != "3600" || row[9] != "01:00:00" {
		t.Fatalf("time spent = %q/%q", row[8], row[9])
	}
	if row[10] != "1" {
		t.Fatalf("Files = %q, want 1", row[10])
	}

	graded := records[2]
	if graded[6] != "92" {
		t.Fatalf("Grade = %q, want 92", graded[6])
	}
	if graded[7] != "" {
		t.Fatalf("unset expected time should be empty, got %q", graded[7])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, _ := csv.NewReader(f).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	assignments := []tracker.Assignment{{
		ID:      "a1",
		Title:   `Read "Hamlet", act 1`,
		Subject: "English",
		DueDate: time.Now(),
	}}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(assignments, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][1] != `Read "Hamlet", act 1` {
		t.Fatalf("title mangled: %q", records[1][1])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	assignments, sessions := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(assignments, sessions, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(result.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(result.Assignments))
	}
	if len(result.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(result.Sessions))
	}

	a := result.Assignments[0]
	if a.Title != "Essay" || a.Subject != "History" {
		t.Fatalf("assignment = %+v", a)
	}
	if a.TimeSpentSec != 3600 || a.TimeSpent != "01:00:00" {
		t.Fatalf("time spent = %d/%q", a.TimeSpentSec, a.TimeSpent)
	}
	if len(a.Files) != 1 || a.Files[0] != "notes.txt" {
		t.Fatalf("files = %v", a.Files)
	}

	s := result.Sessions[1]
	if s.DurationSec != 61 || s.Duration != "00:01:01" {
		t.Fatalf("session duration = %d/%q", s.DurationSec, s.Duration)
	}
	if s.Subject != tracker.DefaultSubject {
		t.Fatalf("session subject = %q", s.Subject)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"assignments": []`) {
		t.Fatalf("empty export should carry an empty assignments array:\n%s", data)
	}
	if !strings.Contains(string(data), `"sessions": []`) {
		t.Fatalf("empty export should carry an empty sessions array:\n%s", data)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	assignments, sessions := sampleData()
	path := filepath.Join(t.TempDir(), "ts.json")
	if err := ToJSON(assignments, sessions, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, a := range result.Assignments {
		if _, err := time.Parse(time.RFC3339, a.Due); err != nil {
			t.Fatalf("due is not valid RFC3339: %q", a.Due)
		}
	}
	for _, s := range result.Sessions {
		if _, err := time.Parse(time.RFC3339, s.Date); err != nil {
			t.Fatalf("date is not valid RFC3339: %q", s.Date)
		}
	}
}

// ============================================================
// iCalendar
// ============================================================

func fixedUIDs(t *testing.T) {
	t.Helper()
	orig := newUID
	n := 0
	newUID = func() string {
		n++
		return "uid-" + string(rune('0'+n)) + "@studybat.com"
	}
	t.Cleanup(func() { newUID = orig })
}

func TestWriteICS(t *testing.T) {
	fixedUIDs(t)
	assignments, _ := sampleData()

	var buf bytes.Buffer
	if err := WriteICS(&buf, assignments); err != nil {
		t.Fatalf("WriteICS: %v", err)
	}
	out := buf.String()

	want := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//StudyBat//Academic Tracker//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:uid-1@studybat.com\r\n" +
		"DTSTART:20240315T143000Z\r\n" +
		"DTEND:20240315T153000Z\r\n" +
		"SUMMARY:Essay\r\n" +
		"DESCRIPTION:History - Causes of WW1\r\n" +
		"LOCATION:History\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	if out != want {
		t.Fatalf("ics mismatch:\ngot:\n%q\nwant:\n%q", out, want)
	}
}

func TestWriteICSSkipsCompleted(t *testing.T) {
	assignments, _ := sampleData()
	assignments[0].Status = tracker.StatusCompleted

	var buf bytes.Buffer
	if err := WriteICS(&buf, assignments); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "BEGIN:VEVENT") {
		t.Fatalf("completed assignments should not be exported:\n%s", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "END:VCALENDAR\r\n") {
		t.Fatal("calendar should still be closed")
	}
}

func TestWriteICSEscaping(t *testing.T) {
	fixedUIDs(t)
	assignments := []tracker.Assignment{{
		Title:       `Ch. 3; part 2, draft \ final`,
		Subject:     "Math",
		Description: "line one\nline two",
		DueDate:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}

	var buf bytes.Buffer
	if err := WriteICS(&buf, assignments); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, `SUMMARY:Ch. 3\; part 2\, draft \\ final`+"\r\n") {
		t.Fatalf("summary not escaped:\n%q", out)
	}
	if !strings.Contains(out, `DESCRIPTION:Math - line one\nline two`+"\r\n") {
		t.Fatalf("description newline not escaped:\n%q", out)
	}
}

func TestWriteICSEmptyDescription(t *testing.T) {
	assignments := []tracker.Assignment{{Title: "Quiz", Subject: "Bio", DueDate: time.Now()}}

	var buf bytes.Buffer
	if err := WriteICS(&buf, assignments); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "DESCRIPTION:Bio - No description\r\n") {
		t.Fatalf("missing placeholder description:\n%s", buf.String())
	}
}

func TestWriteICSConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	assignments := []tracker.Assignment{{Title: "Quiz", Subject: "Bio", DueDate: time.Date(2024, 6, 1, 10, 0, 0, 0, loc)}}

	var buf bytes.Buffer
	if err := WriteICS(&buf, assignments); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "DTSTART:20240601T080000Z\r\n") {
		t.Fatalf("start not in UTC:\n%s", buf.String())
	}
}

func TestWriteICSUniqueUIDs(t *testing.T) {
	assignments, _ := sampleData()
	assignments[1].Status = tracker.StatusPending

	var buf bytes.Buffer
	if err := WriteICS(&buf, assignments); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(buf.String(), "\r\n") {
		uid, ok := strings.CutPrefix(line, "UID:")
		if !ok {
			continue
		}
		if !strings.HasSuffix(uid, "@studybat.com") {
			t.Fatalf("uid %q missing domain", uid)
		}
		if seen[uid] {
			t.Fatalf("duplicate uid %q", uid)
		}
		seen[uid] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 events, got %d", len(seen))
	}
}

func TestToICS(t *testing.T) {
	assignments, _ := sampleData()
	path := filepath.Join(t.TempDir(), "deadlines.ics")

	if err := ToICS(assignments, path); err != nil {
		t.Fatalf("ToICS: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "BEGIN:VCALENDAR\r\n") {
		t.Fatalf("unexpected file contents:\n%s", data)
	}
}

func TestToICSBadPath(t *testing.T) {
	if err := ToICS(nil, "/nonexistent/dir/file.ics"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/studybat/internal/timer"
	"github.com/sadopc/studybat/internal/tracker"
)

type jsonExport struct {
	ExportedAt  string           `json:"exported_at"`
	Assignments []jsonAssignment `json:"assignments"`
	Sessions    []jsonSession    `json:"sessions"`
}

type jsonAssignment struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Subject      string   `json:"subject"`
	Description  string   `json:"description,omitempty"`
	Priority     string   `json:"priority"`
	Status       string   `json:"status"`
	Due          string   `json:"due"`
	Grade        string   `json:"grade,omitempty"`
	ExpectedMin  int      `json:"expected_minutes,omitempty"`
	TimeSpentSec int64    `json:"time_spent_seconds"`
	TimeSpent    string   `json:"time_spent"`
	Files        []string `json:"files,omitempty"`
}

type jsonSession struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Subject     string `json:"subject"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

func ToJSON(assignments []tracker.Assignment, sessions []tracker.StudySession, path string) error {
	export := jsonExport{
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Assignments: []jsonAssignment{},
		Sessions:    []jsonSession{},
	}

	for _, a := range assignments {
		var files []string
		for _, f := range a.Files {
			files = append(files, f.Name)
		}
		export.Assignments = append(export.Assignments, jsonAssignment{
			ID:           a.ID,
			Title:        a.Title,
			Subject:      a.Subject,
			Description:  a.Description,
			Priority:     string(a.Priority),
			Status:       string(a.Status),
			Due:          a.DueDate.Local().Format(time.RFC3339),
			Grade:        a.Grade,
			ExpectedMin:  a.ExpectedTime,
			TimeSpentSec: a.TimeSpent,
			TimeSpent:    timer.FormatTime(a.TimeSpent),
			Files:        files,
		})
	}

	for _, s := range sessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			Date:        s.Date.Local().Format(time.RFC3339),
			Subject:     s.Subject,
			DurationSec: s.Duration,
			Duration:    timer.FormatTime(s.Duration),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

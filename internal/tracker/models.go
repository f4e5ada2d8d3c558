package tracker

import (
	"encoding/json"
	"fmt"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the statuses in the order the UI advances through them.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Next returns the status that follows s, and false if s is terminal.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPending:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusCompleted, true
	}
	return s, false
}

type FileMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Ref  string `json:"ref"` // attachment ID in the blob store
}

type Assignment struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	Description  string     `json:"description"`
	DueDate      time.Time  `json:"dueDate"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	Grade        string     `json:"grade,omitempty"`
	ExpectedTime int        `json:"expectedTime,omitempty"` // minutes
	TimeSpent    int64      `json:"timeSpent"`              // seconds
	Files        []FileMeta `json:"files"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Zone-less due dates, as a datetime-local input writes them. They are read in
// local time.
var localDueLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON accepts RFC 3339 due dates and the zone-less local forms.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	type plain Assignment
	aux := struct {
		*plain
		DueDate string `json:"dueDate"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	due, err := parseDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	a.DueDate = due
	return nil
}

func parseDueDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localDueLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("due date %q: unrecognized format", s)
}

// Completed reports whether the assignment is done.
func (a Assignment) Completed() bool { return a.Status == StatusCompleted }

type StudySession struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Duration int64     `json:"duration"` // seconds
	Subject  string    `json:"subject"`
}

// AssignmentInput carries the user-editable fields of an assignment.
type AssignmentInput struct {
	Title        string
	Subject      string
	Description  string
	DueDate      time.Time
	Priority     Priority
	ExpectedTime int
}

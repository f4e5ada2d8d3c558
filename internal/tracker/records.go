package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Keys of the persisted collections in the key/value store.
const (
	AssignmentsKey = "studybat-assignments"
	SessionsKey    = "studybat-sessions"
)

// DefaultSubject is used for study sessions recorded without a subject.
const DefaultSubject = "General"

var (
	ErrNotFound     = errors.New("assignment not found")
	ErrMissingField = errors.New("missing required field")
)

// KV is the persistent key-value storage the collections live in.
type KV interface {
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
}

// Blobs is the content store holding attachment data.
type Blobs interface {
	PutBlob(name, mimeType string, data []byte) (string, error)
	ReadBlob(id string) ([]byte, error)
	DeleteBlob(id string) error
}

// Records holds the assignment and study-session collections. Every mutating
// method persists the collection it touched before returning.
type Records struct {
	kv    KV
	blobs Blobs
	now   func() time.Time
	newID func() string

	assignments []Assignment
	sessions    []StudySession
}

type Option func(*Records)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Records) { r.now = now }
}

// WithIDs overrides the ID generator.
func WithIDs(newID func() string) Option {
	return func(r *Records) { r.newID = newID }
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Open loads both collections from kv. Missing or malformed data yields an
// empty collection; Open never fails.
func Open(kv KV, blobs Blobs, opts ...Option) *Records {
	r := &Records{
		kv:    kv,
		blobs: blobs,
		now:   time.Now,
		newID: newID,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.assignments = load[Assignment](kv, AssignmentsKey)
	r.sessions = load[StudySession](kv, SessionsKey)
	for i := range r.assignments {
		if r.assignments[i].Files == nil {
			r.assignments[i].Files = []FileMeta{}
		}
	}
	return r
}

func load[T any](kv KV, key string) []T {
	raw, ok, err := kv.GetValue(key)
	if err != nil {
		log.Printf("load %s: %v", key, err)
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("load %s: malformed data, starting empty: %v", key, err)
		return nil
	}
	return items
}

func persist[T any](kv KV, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := kv.SetValue(key, string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (r *Records) PersistAssignments() error {
	return persist(r.kv, AssignmentsKey, r.assignments)
}

func (r *Records) PersistSessions() error {
	return persist(r.kv, SessionsKey, r.sessions)
}

// AddAssignment appends a new pending assignment.
func (r *Records) AddAssignment(in AssignmentInput) (Assignment, error) {
	if err := in.validate(); err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		ID:        r.newID(),
		Status:    StatusPending,
		Files:     []FileMeta{},
		CreatedAt: r.now().UTC(),
	}
	in.apply(&a)
	r.assignments = append(r.assignments, a)
	return a, r.PersistAssignments()
}

// Update replaces the editable fields of an assignment.
func (r *Records) Update(id string, in AssignmentInput) (Assignment, error) {
	i := r.index(id)
	if i < 0 {
		return Assignment{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if err := in.validate(); err != nil {
		return Assignment{}, err
	}
	in.apply(&r.assignments[i])
	return r.assignments[i].clone(), r.PersistAssignments()
}

func (in AssignmentInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Subject) == "" {
		missing = append(missing, "subject")
	}
	if in.DueDate.IsZero() {
		missing = append(missing, "due date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

func (in AssignmentInput) apply(a *Assignment) {
	a.Title = strings.TrimSpace(in.Title)
	a.Subject = strings.TrimSpace(in.Subject)
	a.Description = strings.TrimSpace(in.Description)
	a.DueDate = in.DueDate
	a.Priority = in.Priority
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	a.ExpectedTime = max(in.ExpectedTime, 0)
}

// AddSession records a finished study session.
func (r *Records) AddSession(duration int64, subject string) (StudySession, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	s := StudySession{
		ID:       r.newID(),
		Date:     r.now().UTC(),
		Duration: max(duration, 0),
		Subject:  subject,
	}
	r.sessions = append(r.sessions, s)
	return s, r.PersistSessions()
}

// UpdateStatus sets the status of an assignment. A non-empty grade is attached
// only when moving to completed and no grade is set yet.
func (r *Records) UpdateStatus(id string, status Status, grade string) (Assignment, error) {
	i := r.index(id)
	if i < 0 {
		return Assignment{}, fmt.Errorf("update status %s: %w", id, ErrNotFound)
	}
	a := &r.assignments[i]
	a.Status = status
	grade = strings.TrimSpace(grade)
	if status == StatusCompleted && a.Grade == "" && grade != "" {
		a.Grade = grade
	}
	return a.clone(), r.PersistAssignments()
}

// Remove deletes an assignment and its attachment blobs.
func (r *Records) Remove(id string) error {
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	files := r.assignments[i].Files
	r.assignments = slices.Delete(r.assignments, i, i+1)
	if err := r.PersistAssignments(); err != nil {
		return err
	}
	if r.blobs != nil {
		for _, f := range files {
			if err := r.blobs.DeleteBlob(f.Ref); err != nil {
				log.Printf("remove %s: %v", id, err)
			}
		}
	}
	return nil
}

// AddTimeSpent adds secs to the assignment's logged time.
func (r *Records) AddTimeSpent(id string, secs int64) (Assignment, error) {
	i := r.index(id)
	if i < 0 {
		return Assignment{}, fmt.Errorf("add time %s: %w", id, ErrNotFound)
	}
	if secs <= 0 {
		return r.assignments[i].clone(), nil
	}
	r.assignments[i].TimeSpent += secs
	return r.assignments[i].clone(), r.PersistAssignments()
}

// AttachFile stores data in the blob store and appends its metadata.
func (r *Records) AttachFile(id, name, mimeType string, data []byte) (FileMeta, error) {
	i := r.index(id)
	if i < 0 {
		return FileMeta{}, fmt.Errorf("attach %s: %w", id, ErrNotFound)
	}
	if r.blobs == nil {
		return FileMeta{}, errors.New("attach: no attachment store")
	}
	ref, err := r.blobs.PutBlob(name, mimeType, data)
	if err != nil {
		return FileMeta{}, fmt.Errorf("attach %s: %w", id, err)
	}
	meta := FileMeta{Name: name, Size: int64(len(data)), Type: mimeType, Ref: ref}
	r.assignments[i].Files = append(r.assignments[i].Files, meta)
	return meta, r.PersistAssignments()
}

// Attachment returns the content behind a file reference.
func (r *Records) Attachment(ref string) ([]byte, error) {
	if r.blobs == nil {
		return nil, errors.New("attachment: no attachment store")
	}
	return r.blobs.ReadBlob(ref)
}

// clone copies a with its own Files slice.
func (a Assignment) clone() Assignment {
	a.Files = slices.Clone(a.Files)
	return a
}

func (r *Records) index(id string) int {
	return slices.IndexFunc(r.assignments, func(a Assignment) bool { return a.ID == id })
}

// Assignment looks up one assignment by ID.
func (r *Records) Assignment(id string) (Assignment, bool) {
	i := r.index(id)
	if i < 0 {
		return Assignment{}, false
	}
	return r.assignments[i].clone(), true
}

// Assignments returns a copy of the collection in insertion order.
func (r *Records) Assignments() []Assignment {
	out := make([]Assignment, len(r.assignments))
	for i, a := range r.assignments {
		out[i] = a.clone()
	}
	return out
}

// Sessions returns a copy of the study sessions in insertion order.
func (r *Records) Sessions() []StudySession {
	return slices.Clone(r.sessions)
}

// RecentSessions returns up to n sessions, newest first.
func (r *Records) RecentSessions(n int) []StudySession {
	if n <= 0 {
		return nil
	}
	start := max(len(r.sessions)-n, 0)
	recent := slices.Clone(r.sessions[start:])
	slices.Reverse(recent)
	return recent
}

// Subjects returns the distinct assignment subjects in first-appearance order.
func (r *Records) Subjects() []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, a := range r.assignments {
		if seen[a.Subject] {
			continue
		}
		seen[a.Subject] = true
		subjects = append(subjects, a.Subject)
	}
	return subjects
}

// Filter returns assignments matching subject and status, sorted by due date.
// Empty filters match everything.
func (r *Records) Filter(subject string, status Status) []Assignment {
	var out []Assignment
	for _, a := range r.assignments {
		if subject != "" && a.Subject != subject {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a.clone())
	}
	slices.SortStableFunc(out, func(a, b Assignment) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return out
}

// DueOn returns the assignments due on the calendar day of date, in date's
// location.
func (r *Records) DueOn(date time.Time) []Assignment {
	y, m, d := date.Date()
	var out []Assignment
	for _, a := range r.assignments {
		ay, am, ad := a.DueDate.In(date.Location()).Date()
		if ay == y && am == m && ad == d {
			out = append(out, a.clone())
		}
	}
	return out
}

// Package activity provides scheduled parenting activity value types and the
// pure status-transition rule.
package activity

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a scheduled activity.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusSkipped   Status = "SKIPPED"
)

// ParseStatus validates s.
// This is a PURE function.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusSkipped:
		return st, nil
	}
	return "", fmt.Errorf("invalid activity status %q", s)
}

// Child belongs to one couple and owns scheduled activities.
type Child struct {
	ID        string     `json:"id"`
	CoupleID  string     `json:"couple_id"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date"`
	CreatedAt time.Time  `json:"created_at"`
}

// Template is the reusable description of an activity.
type Template struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AgeMin      int       `json:"age_min"`
	AgeMax      int       `json:"age_max"`
	Duration    int       `json:"duration_minutes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Scheduled is an activity planned for one child, with its template.
type Scheduled struct {
	ID           string     `json:"id"`
	ChildID      string     `json:"child_id"`
	TemplateID   string     `json:"activity_template_id"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Status       Status     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	Template     Template   `json:"activity_template"`
}

// StorybookEntry records a completed activity in a child's storybook.
type StorybookEntry struct {
	ID             string         `json:"id"`
	ChildID        string         `json:"child_id"`
	ActivityType   string         `json:"activity_type"`
	CompletionData map[string]any `json:"completion_data"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Transition is the set of writes that move an activity to a new status.
// Entry is non-nil only when the activity becomes COMPLETED; both writes must
// then commit together.
type Transition struct {
	ActivityID  string
	Status      Status
	CompletedAt *time.Time
	Entry       *StorybookEntry
}

// PlanTransition computes the writes for setting a's status at now.
// This is a PURE function.
func PlanTransition(a Scheduled, status Status, now time.Time, entryID string) Transition {
	t := Transition{ActivityID: a.ID, Status: status}
	if status != StatusCompleted {
		return t
	}
	at := now
	t.CompletedAt = &at
	t.Entry = &StorybookEntry{
		ID:             entryID,
		ChildID:        a.ChildID,
		ActivityType:   a.Template.Category,
		CompletionData: map[string]any{"title": a.Template.Title},
		CreatedAt:      now,
	}
	return t
}

// Apply returns a with the transition's status fields set.
// This is a PURE function.
func Apply(a Scheduled, t Transition) Scheduled {
	a.Status = t.Status
	a.CompletedAt = t.CompletedAt
	return a
}

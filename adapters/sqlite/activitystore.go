package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/artpar/familyhub/core/codec"
	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/domain/activity"
	"github.com/artpar/familyhub/ports"
)

// ActivityStore implements ports.ActivityStore using SQLite.
type ActivityStore struct {
	db *DB
}

// NewActivityStore creates a new SQLite activity store.
func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

type templateRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Category    string         `db:"category"`
	AgeMin      sql.NullInt64  `db:"age_min"`
	AgeMax      sql.NullInt64  `db:"age_max"`
	Duration    sql.NullInt64  `db:"duration_minutes"`
	CreatedAt   string         `db:"created_at"`
}

type scheduledRow struct {
	ID           string         `db:"id"`
	ChildID      string         `db:"child_id"`
	TemplateID   string         `db:"activity_template_id"`
	ScheduledFor string         `db:"scheduled_for"`
	Status       string         `db:"status"`
	CompletedAt  sql.NullString `db:"completed_at"`
	CreatedAt    string         `db:"created_at"`
	Template     templateRow    `db:"template"`
}

type storybookRow struct {
	ID             string         `db:"id"`
	ChildID        string         `db:"child_id"`
	ActivityType   string         `db:"activity_type"`
	CompletionData sql.NullString `db:"completion_data"`
	CreatedAt      string         `db:"created_at"`
}

// ListForCouple returns every scheduled activity of the couple's children.
// A couple without children yields an empty list without a second query.
func (s *ActivityStore) ListForCouple(ctx context.Context, coupleID string) ([]activity.Scheduled, error) {
	q, err := s.db.query("list-child-ids-by-couple")
	if err != nil {
		return nil, err
	}
	var childIDs []string
	if err := s.db.SelectContext(ctx, &childIDs, q, coupleID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	if len(childIDs) == 0 {
		return []activity.Scheduled{}, nil
	}

	raw, err := s.db.dot.Raw("list-scheduled-activities-for-children")
	if err != nil {
		return nil, fmt.Errorf("query not found: %s", "list-scheduled-activities-for-children")
	}
	q, args, err := sqlx.In(raw, childIDs)
	if err != nil {
		return nil, fmt.Errorf("expand child ids: %w", err)
	}

	var rows []scheduledRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list scheduled activities: %w", err)
	}

	out := make([]activity.Scheduled, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Get returns one scheduled activity with its template.
func (s *ActivityStore) Get(ctx context.Context, id string) (activity.Scheduled, error) {
	q, err := s.db.query("get-scheduled-activity")
	if err != nil {
		return activity.Scheduled{}, err
	}
	var r scheduledRow
	err = s.db.GetContext(ctx, &r, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Scheduled{}, ports.ErrNotFound
	}
	if err != nil {
		return activity.Scheduled{}, fmt.Errorf("get scheduled activity: %w", err)
	}
	return r.toDomain()
}

// Apply writes the status change and the optional storybook entry in one
// transaction.
func (s *ActivityStore) Apply(ctx context.Context, t activity.Transition) error {
	updateQ, err := s.db.query("update-scheduled-activity-status")
	if err != nil {
		return err
	}
	insertQ, err := s.db.query("insert-storybook-entry")
	if err != nil {
		return err
	}

	var completedAt any
	if t.CompletedAt != nil {
		completedAt = storage.FormatTime(*t.CompletedAt)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, updateQ, string(t.Status), completedAt, t.ActivityID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("update activity status: %w", err)
	}
	if err := requireRow(res); err != nil {
		tx.Rollback()
		return err
	}

	if e := t.Entry; e != nil {
		data, err := codec.EncodeString(codec.KindCompletionData, e.CompletionData)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, insertQ,
			e.ID, e.ChildID, e.ActivityType, data, storage.FormatTime(e.CreatedAt)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert storybook entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity status: %w", err)
	}
	return nil
}

// AddChild stores a child.
func (s *ActivityStore) AddChild(ctx context.Context, c activity.Child) error {
	q, err := s.db.query("insert-child")
	if err != nil {
		return err
	}
	var birth any
	if c.BirthDate != nil {
		birth = storage.FormatTime(*c.BirthDate)
	}
	if _, err := s.db.ExecContext(ctx, q, c.ID, c.CoupleID, c.Name, birth, storage.FormatTime(c.CreatedAt)); err != nil {
		return fmt.Errorf("insert child: %w", err)
	}
	return nil
}

// AddTemplate stores an activity template.
func (s *ActivityStore) AddTemplate(ctx context.Context, t activity.Template) error {
	q, err := s.db.query("insert-activity-template")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, t.ID, t.Title, t.Description, t.Category,
		t.AgeMin, t.AgeMax, t.Duration, storage.FormatTime(t.CreatedAt)); err != nil {
		return fmt.Errorf("insert activity template: %w", err)
	}
	return nil
}

// Schedule stores a scheduled activity. a.Template is not written.
func (s *ActivityStore) Schedule(ctx context.Context, a activity.Scheduled) error {
	q, err := s.db.query("insert-scheduled-activity")
	if err != nil {
		return err
	}
	status := a.Status
	if status == "" {
		status = activity.StatusPending
	}
	var completedAt any
	if a.CompletedAt != nil {
		completedAt = storage.FormatTime(*a.CompletedAt)
	}
	if _, err := s.db.ExecContext(ctx, q, a.ID, a.ChildID, a.TemplateID,
		storage.FormatTime(a.ScheduledFor), string(status), completedAt, storage.FormatTime(a.CreatedAt)); err != nil {
		return fmt.Errorf("insert scheduled activity: %w", err)
	}
	return nil
}

// StorybookEntries returns a child's storybook in creation order.
func (s *ActivityStore) StorybookEntries(ctx context.Context, childID string) ([]activity.StorybookEntry, error) {
	q, err := s.db.query("list-storybook-entries-by-child")
	if err != nil {
		return nil, err
	}
	var rows []storybookRow
	if err := s.db.SelectContext(ctx, &rows, q, childID); err != nil {
		return nil, fmt.Errorf("list storybook entries: %w", err)
	}

	out := make([]activity.StorybookEntry, 0, len(rows))
	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		data, err := codec.Decode(codec.KindCompletionData, r.CompletionData.String, r.CompletionData.Valid)
		if err != nil {
			var ce *codec.Error
			if errors.As(err, &ce) {
				ce.Column = "completion_data"
			}
			return nil, err
		}
		entry := activity.StorybookEntry{
			ID:           r.ID,
			ChildID:      r.ChildID,
			ActivityType: r.ActivityType,
			CreatedAt:    created,
		}
		if m, ok := data.(map[string]any); ok {
			entry.CompletionData = m
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r scheduledRow) toDomain() (activity.Scheduled, error) {
	scheduledFor, err := parseTime(r.ScheduledFor)
	if err != nil {
		return activity.Scheduled{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return activity.Scheduled{}, err
	}
	tmplCreated, err := parseTime(r.Template.CreatedAt)
	if err != nil {
		return activity.Scheduled{}, err
	}

	a := activity.Scheduled{
		ID:           r.ID,
		ChildID:      r.ChildID,
		TemplateID:   r.TemplateID,
		ScheduledFor: scheduledFor,
		Status:       activity.Status(r.Status),
		CreatedAt:    created,
		Template: activity.Template{
			ID:          r.Template.ID,
			Title:       r.Template.Title,
			Description: r.Template.Description.String,
			Category:    r.Template.Category,
			AgeMin:      int(r.Template.AgeMin.Int64),
			AgeMax:      int(r.Template.AgeMax.Int64),
			Duration:    int(r.Template.Duration.Int64),
			CreatedAt:   tmplCreated,
		},
	}
	if r.CompletedAt.Valid {
		t, err := parseTime(r.CompletedAt.String)
		if err != nil {
			return activity.Scheduled{}, err
		}
		a.CompletedAt = &t
	}
	return a, nil
}

// Ensure interface compliance.
var _ ports.ActivityStore = (*ActivityStore)(nil)

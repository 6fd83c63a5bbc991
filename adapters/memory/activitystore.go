package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/familyhub/domain/activity"
	"github.com/artpar/familyhub/ports"
)

// ActivityStore is an in-memory implementation of ports.ActivityStore.
type ActivityStore struct {
	mu        sync.RWMutex
	children  map[string]activity.Child
	templates map[string]activity.Template
	scheduled map[string]activity.Scheduled
	storybook []activity.StorybookEntry
}

// NewActivityStore creates a new in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		children:  make(map[string]activity.Child),
		templates: make(map[string]activity.Template),
		scheduled: make(map[string]activity.Scheduled),
	}
}

// AddChild stores a child.
func (s *ActivityStore) AddChild(ctx context.Context, c activity.Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[c.ID] = c
	return nil
}

// AddTemplate stores an activity template.
func (s *ActivityStore) AddTemplate(ctx context.Context, t activity.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
	return nil
}

// Schedule stores a scheduled activity.
func (s *ActivityStore) Schedule(ctx context.Context, a activity.Scheduled) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.children[a.ChildID]; !ok {
		return fmt.Errorf("schedule activity: unknown child %q", a.ChildID)
	}
	if _, ok := s.templates[a.TemplateID]; !ok {
		return fmt.Errorf("schedule activity: unknown template %q", a.TemplateID)
	}
	if a.Status == "" {
		a.Status = activity.StatusPending
	}
	s.scheduled[a.ID] = a
	return nil
}

// ListForCouple returns the couple's scheduled activities by scheduled time.
func (s *ActivityStore) ListForCouple(ctx context.Context, coupleID string) ([]activity.Scheduled, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kids := make(map[string]bool)
	for _, c := range s.children {
		if c.CoupleID == coupleID {
			kids[c.ID] = true
		}
	}

	out := []activity.Scheduled{}
	if len(kids) == 0 {
		return out, nil
	}
	for _, a := range s.scheduled {
		if kids[a.ChildID] {
			out = append(out, s.withTemplate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledFor.Equal(out[j].ScheduledFor) {
			return out[i].ScheduledFor.Before(out[j].ScheduledFor)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns one scheduled activity.
func (s *ActivityStore) Get(ctx context.Context, id string) (activity.Scheduled, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.scheduled[id]
	if !ok {
		return activity.Scheduled{}, ports.ErrNotFound
	}
	return s.withTemplate(a), nil
}

// Apply writes the transition under one lock.
func (s *ActivityStore) Apply(ctx context.Context, t activity.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.scheduled[t.ActivityID]
	if !ok {
		return ports.ErrNotFound
	}
	if t.Entry != nil {
		for _, e := range s.storybook {
			if e.ID == t.Entry.ID {
				return fmt.Errorf("insert storybook entry: duplicate id %q", e.ID)
			}
		}
		s.storybook = append(s.storybook, *t.Entry)
	}
	s.scheduled[a.ID] = activity.Apply(a, t)
	return nil
}

// StorybookEntries returns a child's storybook in creation order.
func (s *ActivityStore) StorybookEntries(ctx context.Context, childID string) ([]activity.StorybookEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []activity.StorybookEntry{}
	for _, e := range s.storybook {
		if e.ChildID == childID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *ActivityStore) withTemplate(a activity.Scheduled) activity.Scheduled {
	a.Template = s.templates[a.TemplateID]
	return a
}

// Ensure interface compliance.
var _ ports.ActivityStore = (*ActivityStore)(nil)

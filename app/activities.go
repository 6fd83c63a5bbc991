package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/validation"
	"github.com/artpar/familyhub/domain/activity"
	"github.com/artpar/familyhub/ports"
)

// ActivityEntity is the registry name of scheduled parenting activities.
const ActivityEntity = "activity"

// ActivityService lists scheduled activities and changes their status.
type ActivityService struct {
	validator *validation.Validator
	store     ports.ActivityStore
	ids       ports.IDGenerator
	clock     ports.Clock
	metrics   ports.Metrics
	logger    zerolog.Logger
}

// NewActivityService creates an activity service.
func NewActivityService(v *validation.Validator, store ports.ActivityStore, ids ports.IDGenerator, clock ports.Clock, m ports.Metrics, logger zerolog.Logger) *ActivityService {
	return &ActivityService{validator: v, store: store, ids: ids, clock: clock, metrics: m, logger: logger}
}

// List returns the activities of the couple named in raw.
func (s *ActivityService) List(ctx context.Context, raw map[string]any) ([]activity.Scheduled, error) {
	value, err := s.validate(schema.OpQuery, raw)
	if err != nil {
		return nil, err
	}
	coupleID, _ := value["coupleId"].(string)

	list, err := s.store.ListForCouple(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return list, nil
}

// UpdateStatus moves one activity to the status in raw. Completing an
// activity also writes a storybook entry in the same transaction.
func (s *ActivityService) UpdateStatus(ctx context.Context, id string, raw any) (activity.Scheduled, error) {
	value, err := s.validate(schema.OpUpdate, raw)
	if err != nil {
		return activity.Scheduled{}, err
	}
	status, err := activity.ParseStatus(value["status"].(string))
	if err != nil {
		return activity.Scheduled{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return activity.Scheduled{}, err
	}

	t := activity.PlanTransition(current, status, s.clock.Now(), s.ids.New())
	if err := s.store.Apply(ctx, t); err != nil {
		return activity.Scheduled{}, fmt.Errorf("update activity %s: %w", id, err)
	}

	s.logger.Info().Str("activity_id", id).Str("status", string(status)).
		Bool("storybook_entry", t.Entry != nil).Msg("activity status updated")
	return activity.Apply(current, t), nil
}

func (s *ActivityService) validate(op schema.Operation, raw any) (map[string]any, error) {
	res, err := s.validator.Validate(ActivityEntity, op, raw)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		s.metrics.ValidationFailed(ActivityEntity, string(op))
		return nil, &ValidationError{Entity: ActivityEntity, Operation: op, Result: res}
	}
	return res.Value, nil
}

// Package app contains the services that carry requests from the HTTP
// boundary through validation into storage and back.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/core/codec"
	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/core/validation"
	"github.com/artpar/familyhub/ports"
)

// Record is one entity as returned to clients, keyed by column name.
type Record = map[string]any

// Hook phases.
const (
	PhaseBefore = "before"
	PhaseAfter  = "after"
)

// CreateEvent is passed to create hooks. Before hooks may add columns to
// Row; after hooks see the row as stored.
type CreateEvent struct {
	Entity string
	Value  map[string]any
	Row    ports.Row
	Now    time.Time
}

// CreateHook runs around a record insert. An error aborts the request; an
// after hook error also deletes the inserted row.
type CreateHook func(ctx context.Context, ev CreateEvent) error

// UpdateEvent is passed to update hooks. Current is the record before the
// change; hooks may add columns to Row.
type UpdateEvent struct {
	Entity  string
	ID      string
	Value   map[string]any
	Current Record
	Row     ports.Row
	Now     time.Time
}

// UpdateHook runs before a record update is written. An error aborts the
// request.
type UpdateHook func(ctx context.Context, ev UpdateEvent) error

// RecordDeps are the collaborators of a RecordService.
type RecordDeps struct {
	Validator *validation.Validator
	Store     ports.RecordStore
	IDs       ports.IDGenerator
	Clock     ports.Clock
	Metrics   ports.Metrics
	Logger    zerolog.Logger
}

// RecordService implements list/get/create/update/delete for every entity
// in the schema registry that has a create shape.
type RecordService struct {
	validator *validation.Validator
	registry  *schema.Registry
	store     ports.RecordStore
	ids       ports.IDGenerator
	clock     ports.Clock
	metrics   ports.Metrics
	logger    zerolog.Logger

	hooks       map[string][]CreateHook // "entity/phase"
	updateHooks map[string][]UpdateHook
}

// NewRecordService creates a record service.
func NewRecordService(deps RecordDeps) *RecordService {
	return &RecordService{
		validator: deps.Validator,
		registry:  deps.Validator.Registry(),
		store:     deps.Store,
		ids:       deps.IDs,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		hooks:     make(map[string][]CreateHook),

		updateHooks: make(map[string][]UpdateHook),
	}
}

// OnCreate registers a hook for creates of entity in phase.
// Registration must finish before the service handles requests.
func (s *RecordService) OnCreate(entity, phase string, hook CreateHook) {
	key := entity + "/" + phase
	s.hooks[key] = append(s.hooks[key], hook)
}

// OnUpdate registers a hook that runs before updates of entity are written.
func (s *RecordService) OnUpdate(entity string, hook UpdateHook) {
	s.updateHooks[entity] = append(s.updateHooks[entity], hook)
}

// Entities returns the definitions served by this service.
func (s *RecordService) Entities() []schema.Entity {
	var out []schema.Entity
	for _, e := range s.registry.Entities() {
		if len(e.Create) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// List validates the query, fetches matching rows and applies the tag filter.
func (s *RecordService) List(ctx context.Context, entity string, raw map[string]any) ([]Record, error) {
	ent, err := s.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	value, err := s.validate(ent, schema.OpQuery, raw)
	if err != nil {
		return nil, err
	}

	sch, _ := ent.Schema(schema.OpQuery)
	filter := query.Build(sch, value)

	rows, err := s.store.FindMany(ctx, ent.Table, filter, ent.Ordering())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity, err)
	}

	tagColumn := tagsColumn(sch)
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := s.decode(ent, row)
		if err != nil {
			return nil, err
		}
		if len(filter.Tags) > 0 {
			tags, _ := rec[tagColumn].([]any)
			if !query.MatchAnyTag(tags, filter.Tags) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record.
func (s *RecordService) Get(ctx context.Context, entity, id string) (Record, error) {
	ent, err := s.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	row, err := s.store.Get(ctx, ent.Table, id)
	if err != nil {
		return nil, err
	}
	return s.decode(ent, row)
}

// Create validates raw, runs the entity's hooks and stores the record.
func (s *RecordService) Create(ctx context.Context, entity string, raw any) (Record, error) {
	ent, err := s.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	value, err := s.validate(ent, schema.OpCreate, raw)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	row := storage.ToRow(ent.Create, value)
	row[storage.ColumnID] = s.ids.New()
	row[storage.ColumnCreatedAt] = storage.FormatTime(now)
	row[storage.ColumnUpdatedAt] = storage.FormatTime(now)

	ev := CreateEvent{Entity: entity, Value: value, Row: row, Now: now}
	if err := s.runHooks(ctx, entity, PhaseBefore, ev); err != nil {
		return nil, err
	}

	if err := codec.EncodeRow(ent.CodecColumns(), row); err != nil {
		return nil, fmt.Errorf("encode %s: %w", entity, err)
	}
	if err := s.store.Insert(ctx, ent.Table, row); err != nil {
		return nil, fmt.Errorf("create %s: %w", entity, err)
	}

	id := row[storage.ColumnID].(string)
	if err := s.runHooks(ctx, entity, PhaseAfter, ev); err != nil {
		if derr := s.store.Delete(ctx, ent.Table, id); derr != nil {
			s.logger.Error().Err(derr).Str("entity", entity).Str("id", id).Msg("remove record after failed hook")
		}
		return nil, err
	}

	s.logger.Debug().Str("entity", entity).Str("id", id).Msg("record created")
	return s.Get(ctx, entity, id)
}

// Update applies a partial update. Fields absent from raw are untouched.
func (s *RecordService) Update(ctx context.Context, entity, id string, raw any) (Record, error) {
	ent, err := s.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	value, err := s.validate(ent, schema.OpUpdate, raw)
	if err != nil {
		return nil, err
	}

	sch, _ := ent.Schema(schema.OpUpdate)
	now := s.clock.Now()
	row := storage.ToRow(sch.Fields, value)
	row[storage.ColumnUpdatedAt] = storage.FormatTime(now)

	if hooks := s.updateHooks[entity]; len(hooks) > 0 {
		current, err := s.Get(ctx, entity, id)
		if err != nil {
			return nil, err
		}
		ev := UpdateEvent{Entity: entity, ID: id, Value: value, Current: current, Row: row, Now: now}
		for _, h := range hooks {
			if err := h(ctx, ev); err != nil {
				return nil, fmt.Errorf("%s update hook: %w", entity, err)
			}
		}
	}

	if err := codec.EncodeRow(ent.CodecColumns(), row); err != nil {
		return nil, fmt.Errorf("encode %s: %w", entity, err)
	}
	if err := s.store.Update(ctx, ent.Table, id, row); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update %s: %w", entity, err)
	}
	return s.Get(ctx, entity, id)
}

// Delete removes one record.
func (s *RecordService) Delete(ctx context.Context, entity, id string) error {
	ent, err := s.registry.Entity(entity)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ent.Table, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	return nil
}

func (s *RecordService) validate(ent schema.Entity, op schema.Operation, raw any) (map[string]any, error) {
	res, err := s.validator.Validate(ent.Name, op, raw)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		s.metrics.ValidationFailed(ent.Name, string(op))
		s.logger.Debug().Str("entity", ent.Name).Str("operation", string(op)).
			Strs("paths", res.Paths()).Msg("validation failed")
		return nil, &ValidationError{Entity: ent.Name, Operation: op, Result: res}
	}
	return res.Value, nil
}

// decode turns a stored row into a client record. A column that cannot be
// decoded means stored data is corrupt; it is logged and reported as an
// internal error.
func (s *RecordService) decode(ent schema.Entity, row ports.Row) (Record, error) {
	rec := storage.FromRow(storage.ColumnTypes(ent), row)
	if err := codec.DecodeRow(ent.CodecColumns(), rec); err != nil {
		var ce *codec.Error
		if errors.As(err, &ce) {
			s.metrics.CodecFailed(ce.Column)
			s.logger.Error().Err(err).
				Str("entity", ent.Name).
				Str("column", ce.Column).
				Interface("id", rec[storage.ColumnID]).
				Bool("data_integrity", true).
				Msg("stored column is malformed")
		}
		return nil, fmt.Errorf("decode %s: %w", ent.Name, err)
	}
	return rec, nil
}

func (s *RecordService) runHooks(ctx context.Context, entity, phase string, ev CreateEvent) error {
	for _, h := range s.hooks[entity+"/"+phase] {
		if err := h(ctx, ev); err != nil {
			return fmt.Errorf("%s %s create hook: %w", entity, phase, err)
		}
	}
	return nil
}

func tagsColumn(s schema.Schema) string {
	for _, f := range s.Fields {
		if f.Filter == schema.FilterTagsAny {
			return f.ColumnName()
		}
	}
	return "tags"
}

package bootstrap

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/config"
	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/ports"
)

// HookDeps are the collaborators of the record hooks.
type HookDeps struct {
	Config  *config.Holder
	Rewards ports.RewardStore
	IDs     ports.IDGenerator
	Metrics ports.Metrics
	Logger  zerolog.Logger
}

// RegisterHooks attaches the create hooks every deployment runs: memory
// enrichment and coin awards, plus an info line for each stored record.
func RegisterHooks(svc *app.RecordService, deps HookDeps) {
	app.NewMemoryHooks(deps.Rewards, deps.IDs, deps.Metrics, RewardSettings(deps.Config), deps.Logger).Register(svc)

	for _, ent := range svc.Entities() {
		svc.OnCreate(ent.Name, app.PhaseAfter, auditCreate(deps.Logger))
	}

	deps.Logger.Debug().Int("entities", len(svc.Entities())).Msg("record hooks registered")
}

// RewardSettings reads memory settings from the current configuration, so
// a reload applies to the next create.
func RewardSettings(h *config.Holder) func() app.RewardSettings {
	return func() app.RewardSettings {
		cfg := h.Get()
		return app.RewardSettings{
			MemoryCoins: cfg.Rewards.MemoryCoins,
			Partners:    slices.Clone(cfg.Memories.Partners),
		}
	}
}

func auditCreate(logger zerolog.Logger) app.CreateHook {
	return func(ctx context.Context, ev app.CreateEvent) error {
		event := logger.Info().
			Str("entity", ev.Entity).
			Interface("id", ev.Row[storage.ColumnID])
		if couple, ok := ev.Row["couple_id"].(string); ok {
			event = event.Str("couple_id", couple)
		}
		event.Msg("record stored")
		return nil
	}
}

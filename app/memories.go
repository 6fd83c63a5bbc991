package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/domain/memory"
	"github.com/artpar/familyhub/domain/reward"
	"github.com/artpar/familyhub/ports"
)

// MemoryEntity is the registry name of journal entries.
const MemoryEntity = "memory"

// RewardSettings are the reloadable parameters of memory creation.
type RewardSettings struct {
	MemoryCoins int
	Partners    []string
}

// MemoryHooks adds sentiment, date and partners to new memories and awards
// coins once they are stored. Updates that touch the text recompute the
// sentiment.
type MemoryHooks struct {
	rewards  ports.RewardStore
	ids      ports.IDGenerator
	metrics  ports.Metrics
	settings func() RewardSettings
	logger   zerolog.Logger
}

// NewMemoryHooks creates the memory hooks. settings is read on every create
// so reloaded configuration takes effect without a restart.
func NewMemoryHooks(rewards ports.RewardStore, ids ports.IDGenerator, m ports.Metrics, settings func() RewardSettings, logger zerolog.Logger) *MemoryHooks {
	return &MemoryHooks{rewards: rewards, ids: ids, metrics: m, settings: settings, logger: logger}
}

// Register attaches the hooks to svc.
func (h *MemoryHooks) Register(svc *RecordService) {
	svc.OnCreate(MemoryEntity, PhaseBefore, h.BeforeCreate)
	svc.OnCreate(MemoryEntity, PhaseAfter, h.AfterCreate)
	svc.OnUpdate(MemoryEntity, h.BeforeUpdate)
}

// BeforeCreate fills the server-managed memory columns.
func (h *MemoryHooks) BeforeCreate(ctx context.Context, ev CreateEvent) error {
	content, _ := ev.Value["content"].(string)
	description, _ := ev.Value["description"].(string)

	partners := h.settings().Partners
	if len(partners) == 0 {
		partners = memory.DefaultPartners
	}
	list := make([]any, len(partners))
	for i, p := range partners {
		list[i] = p
	}

	ev.Row["sentiment"] = string(memory.AnalyzeSentiment(memory.SentimentInput(content, description)))
	ev.Row["date"] = storage.FormatTime(ev.Now)
	ev.Row["partners"] = list
	return nil
}

// AfterCreate records the coin award for the new memory.
func (h *MemoryHooks) AfterCreate(ctx context.Context, ev CreateEvent) error {
	coins := h.settings().MemoryCoins
	if coins <= 0 {
		return nil
	}
	coupleID, _ := ev.Value["coupleId"].(string)
	title, _ := ev.Value["title"].(string)

	tx := reward.New(h.ids.New(), coupleID, coins, memory.RewardActivity(title), ev.Now)
	if err := h.rewards.Record(ctx, tx); err != nil {
		return err
	}
	h.metrics.CoinsAwarded(coins)
	h.logger.Info().Str("couple_id", coupleID).Int("coins", coins).Msg("memory reward recorded")
	return nil
}

// BeforeUpdate keeps the stored sentiment in line with the memory text.
// Fields missing from the update are taken from the current record.
func (h *MemoryHooks) BeforeUpdate(ctx context.Context, ev UpdateEvent) error {
	_, hasContent := ev.Value["content"]
	_, hasDescription := ev.Value["description"]
	if !hasContent && !hasDescription {
		return nil
	}

	content, _ := ev.Current["content"].(string)
	if v, ok := ev.Value["content"].(string); ok {
		content = v
	}
	description, _ := ev.Current["description"].(string)
	if v, ok := ev.Value["description"].(string); ok {
		description = v
	}

	ev.Row["sentiment"] = string(memory.AnalyzeSentiment(memory.SentimentInput(content, description)))
	return nil
}

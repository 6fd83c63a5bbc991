package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder provides thread-safe access to configuration with hot reload.
// Reloads that fail to load or validate keep the previous configuration.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	onReload []func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and wraps the result.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// NewStaticHolder wraps an already loaded configuration. Reload on a static
// holder re-reads the environment.
func NewStaticHolder(cfg *Config, logger zerolog.Logger) *Holder {
	return &Holder{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Path returns the watched file, or "" for a static holder.
func (h *Holder) Path() string {
	return h.path
}

// Reload reloads the configuration. On error the old config is kept.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	var (
		newCfg *Config
		err    error
	)
	if h.path == "" {
		newCfg, err = LoadFromEnv()
	} else {
		newCfg, err = Load(h.path)
	}

	h.mu.RLock()
	reloadHooks := slices.Clone(h.onReload)
	h.mu.RUnlock()
	for _, fn := range reloadHooks {
		fn(err)
	}

	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.config
	h.config = newCfg
	changeHooks := slices.Clone(h.onChange)
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)

	for _, fn := range changeHooks {
		fn(newCfg)
	}

	h.logger.Info().Msg("configuration reloaded successfully")
	return nil
}

// OnChange registers a callback run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReload registers a callback run after every reload attempt with its
// error, nil on success.
func (h *Holder) OnReload(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onReload = append(h.onReload, fn)
}

// WatchFile starts watching the config file for changes.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return fmt.Errorf("watch config: no file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory; editors often save by rename.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			h.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("config file changed")

			if err := h.Reload(); err != nil {
				h.logger.Error().Err(err).Msg("file watch reload failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(old, new *Config) {
	if old.Logging.Level != new.Logging.Level {
		h.logger.Info().
			Str("old", old.Logging.Level).
			Str("new", new.Logging.Level).
			Msg("log level changed")
	}

	if old.Rewards.MemoryCoins != new.Rewards.MemoryCoins {
		h.logger.Info().
			Int("old", old.Rewards.MemoryCoins).
			Int("new", new.Rewards.MemoryCoins).
			Msg("memory reward changed")
	}

	if !slices.Equal(old.Memories.Partners, new.Memories.Partners) {
		h.logger.Info().
			Strs("old", old.Memories.Partners).
			Strs("new", new.Memories.Partners).
			Msg("memory partners changed")
	}

	for _, field := range changedRestartFields(old, new) {
		h.logger.Warn().Str("field", field).Msg("setting changed but needs a restart")
	}
}

func changedRestartFields(old, new *Config) []string {
	var out []string
	if old.Server.Host != new.Server.Host {
		out = append(out, "server.host")
	}
	if old.Server.Port != new.Server.Port {
		out = append(out, "server.port")
	}
	if old.Database.DSN != new.Database.DSN {
		out = append(out, "database.dsn")
	}
	return out
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return []string{
		"logging.level",
		"rewards.memory_coins",
		"memories.partners",
	}
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"server.host",
		"server.port",
		"database.dsn",
		"logging.format",
		"metrics.enabled",
		"openapi.enabled",
	}
}

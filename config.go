package bramble

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DefaultFlattenTolerance is the maximum chord deviation, in pixels, used
// when curved colliders are approximated by polygons.
const DefaultFlattenTolerance = 0.25

// EnvPrefix prefixes every environment override, e.g. BRAMBLE_DEBUG=true.
const EnvPrefix = "BRAMBLE_"

// Config holds engine settings. LoadConfig layers a YAML file and then
// environment variables over DefaultConfig.
type Config struct {
	Title  string `yaml:"title" env:"TITLE"`
	Width  int    `yaml:"width" env:"WIDTH"`
	Height int    `yaml:"height" env:"HEIGHT"`
	TPS    int    `yaml:"tps" env:"TPS"`

	Debug         bool `yaml:"debug" env:"DEBUG"`
	ShowColliders bool `yaml:"show_colliders" env:"SHOW_COLLIDERS"`

	// Pivot assigned to new nodes, as fractions of their size.
	DefaultPivotX float64 `yaml:"default_pivot_x" env:"DEFAULT_PIVOT_X"`
	DefaultPivotY float64 `yaml:"default_pivot_y" env:"DEFAULT_PIVOT_Y"`
	// Collider kind bound to new nodes: "", "none", "rect", "circle" or "ellipse".
	DefaultCollider string `yaml:"default_collider" env:"DEFAULT_COLLIDER"`

	FlattenTolerance float64 `yaml:"flatten_tolerance" env:"FLATTEN_TOLERANCE"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Title:            "bramble",
		Width:            640,
		Height:           480,
		TPS:              60,
		FlattenTolerance: DefaultFlattenTolerance,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	case c.TPS <= 0:
		return fmt.Errorf("invalid tps %d", c.TPS)
	case c.DefaultPivotX < 0 || c.DefaultPivotX > 1 || c.DefaultPivotY < 0 || c.DefaultPivotY > 1:
		return fmt.Errorf("default pivot (%g, %g) outside [0, 1]", c.DefaultPivotX, c.DefaultPivotY)
	case !(c.FlattenTolerance > 0):
		return fmt.Errorf("invalid flatten tolerance %g", c.FlattenTolerance)
	}
	kind, ok := ParseShapeKind(c.DefaultCollider)
	if !ok || kind == ShapeComposite {
		return fmt.Errorf("invalid default collider %q", c.DefaultCollider)
	}
	return nil
}

// normalized replaces invalid fields with defaults, warning for each.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Width <= 0 || c.Height <= 0 {
		if c != (Config{}) {
			warnf("config: invalid window size %dx%d, using %dx%d", c.Width, c.Height, d.Width, d.Height)
		}
		c.Width, c.Height = d.Width, d.Height
	}
	if c.TPS <= 0 {
		c.TPS = d.TPS
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	c.DefaultPivotX = clamp01(c.DefaultPivotX)
	c.DefaultPivotY = clamp01(c.DefaultPivotY)
	if kind, ok := ParseShapeKind(c.DefaultCollider); !ok || kind == ShapeComposite {
		warnf("config: invalid default collider %q, using none", c.DefaultCollider)
		c.DefaultCollider = ""
	}
	if !(c.FlattenTolerance > 0) {
		c.FlattenTolerance = d.FlattenTolerance
	}
	return c
}

// LoadConfig reads DefaultConfig, overlays the YAML file at path (skipped
// when path is empty) and then BRAMBLE_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// --- Hot reload ---

// ConfigWatcher reloads a config file whenever it changes on disk. Reloaded
// configs are delivered on Configs; reload failures on Errors.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	path    string

	Configs chan Config
	Errors  chan error

	closeCh chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// configDebounce is how long a config file must stay unchanged before it is
// reloaded.
const configDebounce = 100 * time.Millisecond

// NewConfigWatcher watches path. The parent directory is watched so editors
// that replace the file on save are handled.
func NewConfigWatcher(path string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}
	cw := &ConfigWatcher{
		watcher: w,
		path:    abs,
		Configs: make(chan Config, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// Close stops watching. Configs and Errors are closed once the watch
// goroutine exits.
func (w *ConfigWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.doneCh
	})
	return err
}

func (w *ConfigWatcher) run() {
	defer func() {
		close(w.Configs)
		close(w.Errors)
		close(w.doneCh)
	}()
	// Saves arrive as bursts of events (truncate, then write). The file is
	// loaded once the burst has been quiet for configDebounce.
	debounce := time.NewTimer(configDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			debounce.Reset(configDebounce)
		case <-debounce.C:
			cfg, err := LoadConfig(w.path)
			if err != nil {
				w.sendErr(err)
				continue
			}
			// Keep only the newest config.
			select {
			case <-w.Configs:
			default:
			}
			w.Configs <- cfg
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *ConfigWatcher) sendErr(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

// WatchConfig reloads the config at path whenever it changes. Reloads are
// applied at the start of the next tick. Close stops the watcher.
func (e *Engine) WatchConfig(path string) error {
	if e.closed {
		return ErrClosed
	}
	w, err := NewConfigWatcher(path)
	if err != nil {
		return err
	}
	if e.watcher != nil {
		_ = e.watcher.Close()
	}
	e.watcher = w
	return nil
}

// drainReloads applies the newest pending config and logs watch errors.
func (e *Engine) drainReloads() {
	w := e.watcher
	if w == nil {
		return
	}
	for {
		select {
		case cfg, ok := <-w.Configs:
			if !ok {
				e.watcher = nil
				return
			}
			e.applyConfig(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				e.watcher = nil
				return
			}
			if !errors.Is(err, fsnotify.ErrClosed) {
				warnf("config reload: %v", err)
			}
		default:
			return
		}
	}
}

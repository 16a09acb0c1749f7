package guides

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ganymede-app/guidemark/transform"
)

// DefaultDebounceDuration groups bursts of file events into one reload.
const DefaultDebounceDuration = 200 * time.Millisecond

type entry struct {
	guide *Guide
	path  string
}

// Registry is the local guide library: a folder of JSON guide files,
// possibly organized in sub folders. It is safe for concurrent use.
type Registry struct {
	dir      string
	log      *zap.Logger
	debounce time.Duration
	onChange func()

	mu     sync.RWMutex
	guides map[int]entry
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithDebounceDuration sets how long Watch waits for file events to settle.
func WithDebounceDuration(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.debounce = d
	}
}

// WithOnChange sets the callback invoked after Watch reloaded the library.
func WithOnChange(fn func()) RegistryOption {
	return func(r *Registry) {
		r.onChange = fn
	}
}

// NewRegistry creates an empty registry over dir. Call Load to read it.
func NewRegistry(dir string, opts ...RegistryOption) *Registry {
	r := &Registry{
		dir:      dir,
		log:      zap.NewNop(),
		debounce: DefaultDebounceDuration,
		onChange: func() {},
		guides:   make(map[int]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the library folder.
func (r *Registry) Dir() string {
	return r.dir
}

// Load reads every guide file under the library folder. Unreadable or
// malformed files are skipped and reported together; the guides that could
// be read are available either way. When two files hold the same guide the
// first one found wins.
func (r *Registry) Load() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create guides directory: %w", err)
	}

	loaded := make(map[int]entry)
	var errs error

	walkErr := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = multierr.Append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		g, err := readGuide(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		if prev, dup := loaded[g.ID]; dup {
			r.log.Warn("Duplicate guide ignored", zap.Int("guide", g.ID), zap.String("kept", prev.path), zap.String("ignored", path))
			return nil
		}
		loaded[g.ID] = entry{guide: g, path: path}
		return nil
	})
	errs = multierr.Append(errs, walkErr)

	r.mu.Lock()
	r.guides = loaded
	r.mu.Unlock()

	r.log.Debug("Guides loaded", zap.String("dir", r.dir), zap.Int("count", len(loaded)), zap.Int("errors", len(multierr.Errors(errs))))
	return errs
}

func readGuide(path string) (*Guide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guide file: %w", err)
	}
	var g Guide
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("malformed guide %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("malformed guide %s: %w", path, err)
	}
	return &g, nil
}

// Lookup implements transform.GuideRegistry.
func (r *Registry) Lookup(guideID int) (transform.GuideInfo, bool) {
	g, ok := r.Guide(guideID)
	if !ok {
		return transform.GuideInfo{}, false
	}
	return g.Info(), true
}

// Guide returns a locally available guide.
func (r *Registry) Guide(guideID int) (*Guide, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.guides[guideID]
	return e.guide, ok
}

// IDs returns the ids of the available guides.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.guides))
	for id := range r.guides {
		ids = append(ids, id)
	}
	return ids
}

// Add stores a guide, replacing the file of a previous version if any.
func (r *Registry) Add(g *Guide) error {
	if err := g.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize guide %d: %w", g.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.dir, strconv.Itoa(g.ID)+".json")
	if prev, ok := r.guides[g.ID]; ok {
		path = prev.path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create guides directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write guide file: %w", err)
	}
	r.guides[g.ID] = entry{guide: g, path: path}

	r.log.Debug("Guide stored", zap.Int("guide", g.ID), zap.String("path", path))
	return nil
}

// Remove deletes a guide file.
func (r *Registry) Remove(guideID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.guides[guideID]
	if !ok {
		return fmt.Errorf("remove guide %d: %w", guideID, ErrNotFound)
	}
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove guide file: %w", err)
	}
	delete(r.guides, guideID)
	return nil
}

// Watch reloads the library whenever guide files change, until ctx is done.
// It returns once the watcher is set up.
func (r *Registry) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(fsw, r.dir); err != nil {
		fsw.Close()
		return err
	}

	go r.watch(ctx, fsw)
	return nil
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func (r *Registry) watch(ctx context.Context, fsw *fsnotify.Watcher) {
	defer fsw.Close()

	var (
		timer  *time.Timer
		reload = make(chan struct{}, 1)
	)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(r.debounce, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addTree(fsw, ev.Name); err != nil {
						r.log.Warn("Unable to watch new folder", zap.String("path", ev.Name), zap.Error(err))
					}
					schedule()
					continue
				}
			}
			if strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				schedule()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			r.log.Warn("Guide folder watcher error", zap.Error(err))

		case <-reload:
			if err := r.Load(); err != nil {
				r.log.Warn("Some guides could not be loaded", zap.Error(err))
			}
			r.onChange()
		}
	}
}

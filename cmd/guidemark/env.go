package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ganymede-app/guidemark/actions"
	"github.com/ganymede-app/guidemark/config"
	"github.com/ganymede-app/guidemark/guides"
	"github.com/ganymede-app/guidemark/mapping"
	"github.com/ganymede-app/guidemark/progress"
	"github.com/ganymede-app/guidemark/transform"
)

type envKey struct{}

// localEnv keeps everything the program needs in a single place. Services
// are opened on first use so that commands only pay for what they touch.
type localEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	start    time.Time
	store    *progress.Store
	registry *guides.Registry
	engine   *transform.Transformer
	mapping  *mapping.Table
}

func envFromContext(ctx context.Context) *localEnv {
	if env, ok := ctx.Value(envKey{}).(*localEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &localEnv{start: time.Now(), Log: zap.NewNop()})
}

func (e *localEnv) uptime() time.Duration {
	return time.Since(e.start)
}

func (e *localEnv) openStore(ctx context.Context) (*progress.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	store, err := progress.Open(ctx, e.Cfg.Progress.Database, e.Log.Named("progress"))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureProfile(ctx, e.Cfg.Progress.Profile, e.Cfg.Progress.Profile); err != nil {
		store.Close()
		return nil, err
	}
	e.store = store
	return store, nil
}

// openRegistry loads the guides folder. Broken guide files are reported and
// skipped.
func (e *localEnv) openRegistry(opts ...guides.RegistryOption) *guides.Registry {
	if e.registry != nil {
		return e.registry
	}
	opts = append([]guides.RegistryOption{guides.WithLogger(e.Log.Named("guides"))}, opts...)
	r := guides.NewRegistry(e.Cfg.Guides.Dir, opts...)
	if err := r.Load(); err != nil {
		for _, er := range multierr.Errors(err) {
			e.Log.Warn("Skipping guide", zap.Error(er))
		}
	}
	e.registry = r
	return r
}

func (e *localEnv) downloader() *guides.Downloader {
	api := e.Cfg.API
	client := guides.NewClient(api.BaseURL, string(api.Key),
		guides.WithRateLimit(api.RequestsPerSecond, api.Burst),
		guides.WithTimeout(api.Timeout),
		guides.WithClientLogger(e.Log.Named("api")),
	)
	return guides.NewDownloader(client, e.openRegistry(), e.Log.Named("download"))
}

// recordDownload keeps the outcome of a download made outside the dispatcher,
// so links to the guide show the failure on the next render.
func recordDownload(ctx context.Context, log *zap.Logger, failures actions.FailureLog, guideID int, err error) {
	ctx = context.WithoutCancel(ctx)
	var er error
	if err != nil {
		er = failures.MarkDownloadFailed(ctx, guideID)
	} else {
		er = failures.ClearDownloadFailed(ctx, guideID)
	}
	if er != nil {
		log.Warn("Unable to record download outcome", zap.Int("guide", guideID), zap.Error(er))
	}
}

func (e *localEnv) transformer() (*transform.Transformer, error) {
	if e.engine != nil {
		return e.engine, nil
	}
	t, err := transform.New(e.Cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare engine: %w", err)
	}
	e.engine = t
	return t, nil
}

// mappingTable returns the embedded mapping extended by the user file.
func (e *localEnv) mappingTable() (*mapping.Table, error) {
	if e.mapping != nil {
		return e.mapping, nil
	}
	table := mapping.Default()
	if file := e.Cfg.Reader.MappingFile; file != "" {
		user, err := mapping.Load(file)
		if err != nil {
			return nil, err
		}
		table = table.Merge(user)
	}
	e.mapping = table
	return table, nil
}

// readerContext builds the engine context for a step of a guide, or for a
// standalone document when guideID is nil.
func (e *localEnv) readerContext(ctx context.Context, guideID, stepIndex *int) (transform.Context, error) {
	table, err := e.mappingTable()
	if err != nil {
		return transform.Context{}, err
	}
	store, err := e.openStore(ctx)
	if err != nil {
		return transform.Context{}, err
	}
	profile, err := store.LoadProfile(ctx, e.Cfg.Progress.Profile)
	if err != nil {
		return transform.Context{}, err
	}

	tc := transform.Context{
		Whitelist:        e.Cfg.TrustedOrigins(),
		CurrentGuideID:   guideID,
		CurrentStepIndex: stepIndex,
		Platform:         e.Cfg.Platform(),
		Guides:           e.openRegistry(),
		Progress:         profile,
		Mapping:          table,
		AutoTravelCopy:   e.Cfg.Reader.AutoTravelCopy,
	}
	if guideID != nil && stepIndex != nil {
		tc.CheckedIndices = profile.CheckedIndices(*guideID, *stepIndex)
	}
	if tc.FailedDownloads, err = store.FailedDownloads(ctx); err != nil {
		return transform.Context{}, err
	}
	return tc, nil
}

// dispatcher wires the intent collaborators. Navigation records the step as
// the reader's current one.
func (e *localEnv) dispatcher(ctx context.Context) (*actions.Dispatcher, error) {
	store, err := e.openStore(ctx)
	if err != nil {
		return nil, err
	}
	profileID := e.Cfg.Progress.Profile
	// the opener must not write into command output
	browser.Stdout = io.Discard
	web := actions.SystemBrowser{}
	navigate := actions.NavigatorFunc(func(ctx context.Context, guideID, step int) error {
		if err := store.SetCurrentStep(ctx, profileID, guideID, step); err != nil {
			return err
		}
		e.Log.Info("Moved to step", zap.Int("guide", guideID), zap.Int("step", step+1))
		return nil
	})

	return actions.New(
		actions.WithClipboard(actions.SystemClipboard{}),
		actions.WithBrowser(web),
		actions.WithImageViewer(actions.BrowserImageViewer{Browser: web, Log: e.Log}),
		actions.WithNavigator(navigate),
		actions.WithDownloader(e.downloader()),
		actions.WithProgress(store, profileID),
		actions.WithFailureLog(store),
		actions.WithLogger(e.Log.Named("actions")),
	), nil
}

func (e *localEnv) close() (err error) {
	if e.store != nil {
		err = multierr.Append(err, e.store.Close())
		e.store = nil
	}
	return err
}

// Package actions executes the intents produced by activating interactive
// nodes. Each intent kind is served by a collaborator; intents of one
// activation run in order and the first failure stops the rest.
package actions

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/ganymede-app/guidemark/guides"
	"github.com/ganymede-app/guidemark/transform"
)

// ErrDisabled is returned when the collaborator an intent needs is not
// available.
var ErrDisabled = errors.New("action not available")

// Clipboard receives copied text.
type Clipboard interface {
	WriteText(text string) error
}

// Browser opens external URLs.
type Browser interface {
	Open(ctx context.Context, url string) error
}

// ImageViewer shows an image with a caption.
type ImageViewer interface {
	Show(ctx context.Context, url, title string) error
}

// Navigator moves the reader to a guide step. Step is 0-based.
type Navigator interface {
	Navigate(ctx context.Context, guideID, step int) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, guideID, step int) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, guideID, step int) error {
	return f(ctx, guideID, step)
}

// Downloader makes a guide available locally.
type Downloader interface {
	Download(ctx context.Context, guideID int) (*guides.Guide, error)
}

// Toggler persists checkbox state.
type Toggler interface {
	ToggleCheckbox(ctx context.Context, profileID string, guideID, stepIndex, checkboxIndex int) (bool, error)
}

// FailureLog keeps download failures beyond the life of a Dispatcher.
type FailureLog interface {
	MarkDownloadFailed(ctx context.Context, guideID int) error
	ClearDownloadFailed(ctx context.Context, guideID int) error
}

// Dispatcher runs intents against its collaborators. It is safe for
// concurrent use.
type Dispatcher struct {
	clipboard  Clipboard
	browser    Browser
	viewer     ImageViewer
	navigator  Navigator
	downloader Downloader
	toggler    Toggler
	failures   FailureLog
	profileID  string
	log        *zap.Logger

	mu     sync.Mutex
	failed map[int]bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClipboard sets the clipboard.
func WithClipboard(c Clipboard) Option {
	return func(d *Dispatcher) { d.clipboard = c }
}

// WithBrowser sets the browser.
func WithBrowser(b Browser) Option {
	return func(d *Dispatcher) { d.browser = b }
}

// WithImageViewer sets the image viewer.
func WithImageViewer(v ImageViewer) Option {
	return func(d *Dispatcher) { d.viewer = v }
}

// WithNavigator sets the navigator.
func WithNavigator(n Navigator) Option {
	return func(d *Dispatcher) { d.navigator = n }
}

// WithDownloader sets the guide downloader.
func WithDownloader(dl Downloader) Option {
	return func(d *Dispatcher) { d.downloader = dl }
}

// WithProgress persists checkbox toggles for profileID.
func WithProgress(t Toggler, profileID string) Option {
	return func(d *Dispatcher) {
		d.toggler = t
		d.profileID = profileID
	}
}

// WithFailureLog records download failures and their recovery in l, in
// addition to FailedDownloads.
func WithFailureLog(l FailureLog) Option {
	return func(d *Dispatcher) { d.failures = l }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// New creates a Dispatcher. Intents without a configured collaborator fail
// with ErrDisabled.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:    zap.NewNop(),
		failed: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes intents in order and stops at the first failure.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []transform.Intent) error {
	for i, in := range intents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.execute(ctx, in); err != nil {
			d.log.Warn("Action failed",
				zap.String("intent", string(in.Kind)), zap.Int("position", i), zap.Error(err))
			return fmt.Errorf("%s: %w", in.Kind, err)
		}
		d.log.Debug("Action done", zap.String("intent", string(in.Kind)))
	}
	return nil
}

// FailedDownloads returns the guides whose last download failed. The result
// is a copy suitable for transform.Context.FailedDownloads.
func (d *Dispatcher) FailedDownloads() map[int]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.failed)
}

func (d *Dispatcher) execute(ctx context.Context, in transform.Intent) error {
	switch in.Kind {
	case transform.IntentCopyToClipboard:
		if d.clipboard == nil {
			return ErrDisabled
		}
		return d.clipboard.WriteText(in.Text)

	case transform.IntentOpenExternalURL:
		if d.browser == nil {
			return ErrDisabled
		}
		return d.browser.Open(ctx, in.URL)

	case transform.IntentOpenImageViewer:
		if d.viewer == nil {
			return ErrDisabled
		}
		return d.viewer.Show(ctx, in.URL, in.Title)

	case transform.IntentNavigate:
		if d.navigator == nil {
			return ErrDisabled
		}
		return d.navigator.Navigate(ctx, in.GuideID, in.Step)

	case transform.IntentDownloadGuide:
		if d.downloader == nil {
			return ErrDisabled
		}
		return d.download(ctx, in.GuideID)

	case transform.IntentToggleCheckbox:
		if d.toggler == nil {
			return ErrDisabled
		}
		checked, err := d.toggler.ToggleCheckbox(ctx, d.profileID, in.GuideID, in.StepIndex, in.CheckboxIndex)
		if err != nil {
			return err
		}
		d.log.Info("Checkbox toggled",
			zap.Int("guide", in.GuideID), zap.Int("step", in.StepIndex),
			zap.Int("checkbox", in.CheckboxIndex), zap.Bool("checked", checked))
		return nil

	default:
		return fmt.Errorf("unknown intent %q", in.Kind)
	}
}

func (d *Dispatcher) download(ctx context.Context, guideID int) error {
	_, err := d.downloader.Download(ctx, guideID)

	d.mu.Lock()
	if err != nil {
		d.failed[guideID] = true
	} else {
		delete(d.failed, guideID)
	}
	d.mu.Unlock()

	if d.failures != nil {
		// a cancelled download is still worth remembering
		logCtx := context.WithoutCancel(ctx)
		var er error
		if err != nil {
			er = d.failures.MarkDownloadFailed(logCtx, guideID)
		} else {
			er = d.failures.ClearDownloadFailed(logCtx, guideID)
		}
		if er != nil {
			d.log.Warn("Unable to record download outcome", zap.Int("guide", guideID), zap.Error(er))
		}
	}
	return err
}

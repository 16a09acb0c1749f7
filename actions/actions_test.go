package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ganymede-app/guidemark/guides"
	"github.com/ganymede-app/guidemark/transform"
)

// recorder implements every collaborator and logs the calls it receives.
type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error

	downloads map[int]error
	registry  *guides.Registry
}

func newRecorder() *recorder {
	return &recorder{fail: make(map[string]error), downloads: make(map[int]error)}
}

func (r *recorder) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.fail[call]
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) WriteText(text string) error {
	return r.record("copy " + text)
}

func (r *recorder) Open(_ context.Context, url string) error {
	return r.record("open " + url)
}

func (r *recorder) Show(_ context.Context, url, title string) error {
	return r.record("show " + url + " " + title)
}

func (r *recorder) Navigate(_ context.Context, guideID, step int) error {
	return r.record(fmt.Sprintf("navigate %d/%d", guideID, step))
}

func (r *recorder) Download(_ context.Context, guideID int) (*guides.Guide, error) {
	_ = r.record(fmt.Sprintf("download %d", guideID))
	r.mu.Lock()
	err := r.downloads[guideID]
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g := &guides.Guide{ID: guideID, Lang: guides.LangEn, Steps: make([]guides.Step, 5)}
	if r.registry != nil {
		if err := r.registry.Add(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (r *recorder) ToggleCheckbox(_ context.Context, profileID string, guideID, stepIndex, checkboxIndex int) (bool, error) {
	return true, r.record(fmt.Sprintf("toggle %s %d/%d/%d", profileID, guideID, stepIndex, checkboxIndex))
}

func newFullDispatcher(t *testing.T, r *recorder) *Dispatcher {
	return New(
		WithClipboard(r),
		WithBrowser(r),
		WithImageViewer(r),
		WithNavigator(r),
		WithDownloader(r),
		WithProgress(r, "p1"),
		WithLogger(zaptest.NewLogger(t)),
	)
}

func TestDispatchEachIntent(t *testing.T) {
	tests := []struct {
		intent transform.Intent
		call   string
	}{
		{transform.Intent{Kind: transform.IntentCopyToClipboard, Text: "[1,2]"}, "copy [1,2]"},
		{transform.Intent{Kind: transform.IntentOpenExternalURL, URL: "https://dofusdb.fr"}, "open https://dofusdb.fr"},
		{transform.Intent{Kind: transform.IntentOpenImageViewer, URL: "https://i.png", Title: "map"}, "show https://i.png map"},
		{transform.Intent{Kind: transform.IntentNavigate, GuideID: 3, Step: 4}, "navigate 3/4"},
		{transform.Intent{Kind: transform.IntentDownloadGuide, GuideID: 12}, "download 12"},
		{transform.Intent{Kind: transform.IntentToggleCheckbox, GuideID: 3, StepIndex: 1, CheckboxIndex: 2}, "toggle p1 3/1/2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent.Kind), func(t *testing.T) {
			r := newRecorder()
			d := newFullDispatcher(t, r)
			require.NoError(t, d.Dispatch(context.Background(), []transform.Intent{tt.intent}))
			assert.Equal(t, []string{tt.call}, r.Calls())
		})
	}
}

func TestDispatchWithoutCollaborator(t *testing.T) {
	d := New()
	for _, kind := range []transform.IntentKind{
		transform.IntentCopyToClipboard,
		transform.IntentOpenExternalURL,
		transform.IntentOpenImageViewer,
		transform.IntentNavigate,
		transform.IntentDownloadGuide,
		transform.IntentToggleCheckbox,
	} {
		err := d.Dispatch(context.Background(), []transform.Intent{{Kind: kind}})
		assert.ErrorIs(t, err, ErrDisabled, kind)
	}

	err := d.Dispatch(context.Background(), []transform.Intent{{Kind: "teleport"}})
	assert.ErrorContains(t, err, "unknown intent")
}

func TestDispatchStopsAtFirstFailure(t *testing.T) {
	r := newRecorder()
	boom := errors.New("boom")
	r.fail["open https://a"] = boom
	d := newFullDispatcher(t, r)

	err := d.Dispatch(context.Background(), []transform.Intent{
		{Kind: transform.IntentCopyToClipboard, Text: "x"},
		{Kind: transform.IntentOpenExternalURL, URL: "https://a"},
		{Kind: transform.IntentCopyToClipboard, Text: "never"},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"copy x", "open https://a"}, r.Calls())
}

func TestDispatchHonorsCancellation(t *testing.T) {
	r := newRecorder()
	d := newFullDispatcher(t, r)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Dispatch(ctx, []transform.Intent{{Kind: transform.IntentCopyToClipboard, Text: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.Calls())
}

func TestFailedDownloadsAreTracked(t *testing.T) {
	r := newRecorder()
	r.downloads[7] = guides.ErrNotFound
	d := newFullDispatcher(t, r)

	err := d.Dispatch(context.Background(), []transform.Intent{{Kind: transform.IntentDownloadGuide, GuideID: 7}})
	assert.ErrorIs(t, err, guides.ErrNotFound)
	assert.Equal(t, map[int]bool{7: true}, d.FailedDownloads())

	// the returned map is a copy
	d.FailedDownloads()[8] = true
	assert.Equal(t, map[int]bool{7: true}, d.FailedDownloads())

	delete(r.downloads, 7)
	require.NoError(t, d.Dispatch(context.Background(), []transform.Intent{{Kind: transform.IntentDownloadGuide, GuideID: 7}}))
	assert.Empty(t, d.FailedDownloads())
}

// memoryFailureLog keeps failures the way the progress store does.
type memoryFailureLog map[int]bool

func (m memoryFailureLog) MarkDownloadFailed(ctx context.Context, guideID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m[guideID] = true
	return nil
}

func (m memoryFailureLog) ClearDownloadFailed(_ context.Context, guideID int) error {
	delete(m, guideID)
	return nil
}

func TestFailureLogOutlivesDispatcher(t *testing.T) {
	r := newRecorder()
	r.downloads[99] = errors.New("unexpected status 500 Internal Server Error")
	failures := memoryFailureLog{}

	d := New(WithDownloader(r), WithFailureLog(failures), WithLogger(zaptest.NewLogger(t)))
	err := d.Dispatch(context.Background(), []transform.Intent{{Kind: transform.IntentDownloadGuide, GuideID: 99}})
	require.Error(t, err)
	assert.Equal(t, memoryFailureLog{99: true}, failures)

	// a fresh dispatcher, as in the next program run, clears the failure on success
	delete(r.downloads, 99)
	d = New(WithDownloader(r), WithFailureLog(failures))
	assert.Empty(t, d.FailedDownloads())
	require.NoError(t, d.Dispatch(context.Background(), []transform.Intent{{Kind: transform.IntentDownloadGuide, GuideID: 99}}))
	assert.Empty(t, failures)
}

func TestFailureLogRecordsCancelledDownload(t *testing.T) {
	failures := memoryFailureLog{}
	dl := downloaderFunc(func(context.Context, int) (*guides.Guide, error) {
		return nil, context.Canceled
	})
	ctx, cancel := context.WithCancel(context.Background())
	d := New(WithDownloader(dl), WithFailureLog(failures))

	// cancellation happens while the download runs
	cancel()
	err := d.download(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, memoryFailureLog{5: true}, failures)
}

type downloaderFunc func(ctx context.Context, guideID int) (*guides.Guide, error)

func (f downloaderFunc) Download(ctx context.Context, guideID int) (*guides.Guide, error) {
	return f(ctx, guideID)
}

func crossGuideLink(t *testing.T, tr *transform.Transformer, ctx transform.Context) *transform.Node {
	t.Helper()
	result, err := tr.TransformString(`<p>See <span data-type="guide-step" guideid="7" stepnumber="3">the other guide</span></p>`, ctx)
	require.NoError(t, err)
	nodes := transform.InteractiveNodes(result.Root)
	require.Len(t, nodes, 1)
	require.Equal(t, transform.KindCrossGuideStepLink, nodes[0].Kind)
	return nodes[0]
}

func TestCrossGuideLinkDownloadRoundTrip(t *testing.T) {
	tr, err := transform.New(transform.Config{})
	require.NoError(t, err)

	registry := guides.NewRegistry(t.TempDir())
	require.NoError(t, registry.Load())

	r := newRecorder()
	r.registry = registry
	r.downloads[7] = errors.New("network down")
	d := newFullDispatcher(t, r)

	ctx := transform.Context{CurrentGuideID: transform.Int(1), CurrentStepIndex: transform.Int(0), Guides: registry}

	link := crossGuideLink(t, tr, ctx)
	assert.True(t, link.StepLink.NeedsDownload)
	assert.False(t, link.StepLink.DownloadFailed)

	err = d.Dispatch(context.Background(), transform.Activate(link, transform.Event{}))
	require.Error(t, err)
	assert.Equal(t, []string{"download 7"}, r.Calls(), "navigation must wait for the download")

	// the next render shows the failure on the link
	ctx.FailedDownloads = d.FailedDownloads()
	link = crossGuideLink(t, tr, ctx)
	assert.True(t, link.StepLink.DownloadFailed)

	delete(r.downloads, 7)
	require.NoError(t, d.Dispatch(context.Background(), transform.Activate(link, transform.Event{})))
	assert.Equal(t, []string{"download 7", "download 7", "navigate 7/2"}, r.Calls())

	ctx.FailedDownloads = d.FailedDownloads()
	link = crossGuideLink(t, tr, ctx)
	assert.False(t, link.StepLink.NeedsDownload)
	assert.False(t, link.StepLink.DownloadFailed)
	assert.Equal(t, []transform.Intent{{Kind: transform.IntentNavigate, GuideID: 7, Step: 2}},
		transform.Activate(link, transform.Event{}))
}

func TestNavigatorFunc(t *testing.T) {
	var got [2]int
	n := NavigatorFunc(func(_ context.Context, guideID, step int) error {
		got = [2]int{guideID, step}
		return nil
	})
	d := New(WithNavigator(n))
	require.NoError(t, d.Dispatch(context.Background(), []transform.Intent{{Kind: transform.IntentNavigate, GuideID: 2, Step: 5}}))
	assert.Equal(t, [2]int{2, 5}, got)
}

func TestSystemBrowserHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SystemBrowser{}.Open(ctx, "https://dofusdb.fr"), context.Canceled)
}

func TestBrowserImageViewer(t *testing.T) {
	r := newRecorder()
	v := BrowserImageViewer{Browser: r, Log: zaptest.NewLogger(t)}
	require.NoError(t, v.Show(context.Background(), "https://img", "caption"))
	assert.Equal(t, []string{"open https://img"}, r.Calls())

	assert.ErrorIs(t, BrowserImageViewer{}.Show(context.Background(), "https://img", ""), ErrDisabled)
}

package actions

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"go.uber.org/zap"
)

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

// WriteText replaces the clipboard content.
func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard: %w", ErrDisabled)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

// SystemBrowser opens URLs with the desktop default handler.
type SystemBrowser struct{}

// Open hands url to the default handler.
func (SystemBrowser) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// BrowserImageViewer shows images by opening them in a browser. The caption
// is only logged.
type BrowserImageViewer struct {
	Browser Browser
	Log     *zap.Logger
}

// Show opens url.
func (v BrowserImageViewer) Show(ctx context.Context, url, title string) error {
	if v.Browser == nil {
		return fmt.Errorf("image viewer: %w", ErrDisabled)
	}
	if v.Log != nil {
		v.Log.Info("Opening image", zap.String("url", url), zap.String("title", title))
	}
	return v.Browser.Open(ctx, url)
}

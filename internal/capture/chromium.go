package capture

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeoutSec bounds a capture when Options.Timeout is zero.
const DefaultTimeoutSec = 30

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// HTML is the complete page to render. Its root element must expose
	// data-ready="true" once it is ready to be captured.
	HTML []byte

	// Width and Height are the viewport dimensions in pixels. The
	// screenshot has exactly this size.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero,
	// DefaultTimeoutSec is used.
	Timeout time.Duration
}

// Screenshot launches a headless Chromium instance via chromedp, loads
// opts.HTML from a temporary file, waits until `[data-ready="true"]` is
// visible and returns a PNG screenshot of the viewport.
func Screenshot(parentCtx context.Context, opts Options) ([]byte, error) {
	if len(opts.HTML) == 0 {
		return nil, fmt.Errorf("capture: HTML is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("capture: invalid viewport %dx%d", opts.Width, opts.Height)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	dir, err := os.MkdirTemp("", "milestones-capture-*")
	if err != nil {
		return nil, fmt.Errorf("capture: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	page := filepath.Join(dir, "timeline.html")
	if err := os.WriteFile(page, opts.HTML, 0o600); err != nil {
		return nil, fmt.Errorf("capture: write page: %w", err)
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(fileURL(page)),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay so the embedded fonts are applied.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	return png, nil
}

func fileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

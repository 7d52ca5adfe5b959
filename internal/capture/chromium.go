// Package capture renders the month page in headless Chromium and saves it
// as a PNG.
package capture

import (
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.trai.ch/zerr"
)

// Defaults sized for a printable A4-ish portrait page.
const (
	DefaultWidth   = 1240
	DefaultHeight  = 1754
	DefaultTimeout = 30 * time.Second
)

// ErrMissingOption is returned when a required option is empty.
var ErrMissingOption = zerr.New("missing capture option")

// Options defines one month page capture.
type Options struct {
	// BaseURL is the chorecal server root, e.g. "http://127.0.0.1:8080".
	BaseURL string
	Year    int
	Month   time.Month

	// OutputPath is where the PNG is written. Parent directories are created.
	OutputPath string

	Width   int
	Height  int
	Timeout time.Duration

	// Username and Password are sent as basic auth when set.
	Username string
	Password string
}

// PageURL returns the /calendar URL for the requested month.
func (o Options) PageURL() (string, error) {
	if o.BaseURL == "" {
		return "", zerr.With(zerr.Wrap(ErrMissingOption, "base url is required"), "option", "base_url")
	}
	u, err := url.Parse(strings.TrimRight(o.BaseURL, "/") + "/calendar")
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "parse base url"), "base_url", o.BaseURL)
	}
	q := u.Query()
	if o.Year > 0 {
		q.Set("year", strconv.Itoa(o.Year))
	}
	if o.Month > 0 {
		q.Set("month", strconv.Itoa(int(o.Month)))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

// CaptureCalendarPNG opens the month page in a headless Chromium, waits for
// the grid to report data-ready="true", and writes a full-page screenshot
// to opts.OutputPath.
func CaptureCalendarPNG(parentCtx context.Context, opts Options) error {
	if opts.OutputPath == "" {
		return zerr.With(zerr.Wrap(ErrMissingOption, "output path is required"), "option", "output")
	}
	pageURL, err := opts.PageURL()
	if err != nil {
		return err
	}
	opts.applyDefaults()

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{}
	if opts.Username != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + cred}),
		)
	}
	tasks = append(tasks,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)
	if err := chromedp.Run(ctx, tasks); err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "chromedp run"), "year", opts.Year), "month", int(opts.Month))
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerr.With(zerr.Wrap(err, "create output dir"), "dir", dir)
		}
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "write png"), "path", opts.OutputPath)
	}
	return nil
}

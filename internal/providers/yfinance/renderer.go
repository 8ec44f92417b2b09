package yfinance

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/config"
)

// DefaultUserAgent is sent by the browser when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// Page describes one page to render.
type Page struct {
	URL string
	// ExpandSelector is clicked once, if present, before waiting.
	ExpandSelector string
	// WaitSelector must match before the HTML is captured.
	WaitSelector string
	// Settle is an extra pause after navigation for client-side rendering.
	Settle time.Duration
}

// Renderer returns the rendered HTML of each page, in order. All pages of
// one call share a browser session.
type Renderer interface {
	Render(ctx context.Context, pages ...Page) ([]string, error)
}

// ChromeRenderer renders pages with a headless Chrome driven over the
// DevTools protocol. Each Render call launches and closes its own browser.
type ChromeRenderer struct {
	cfg    config.YahooConfig
	logger *zap.Logger
}

// NewChromeRenderer creates a renderer from the yahoo config section.
func NewChromeRenderer(cfg config.YahooConfig, logger *zap.Logger) *ChromeRenderer {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.ExpandWait <= 0 {
		cfg.ExpandWait = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.L()
	}
	return &ChromeRenderer{cfg: cfg, logger: logger.Named("chrome")}
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("no-sandbox", r.cfg.NoSandbox),
		chromedp.Flag("disable-setuid-sandbox", r.cfg.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.Flag("disable-features", "FirstPartySets"),
		chromedp.UserAgent(r.cfg.UserAgent),
	)
	if r.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}
	return opts
}

// Render implements Renderer.
func (r *ChromeRenderer) Render(ctx context.Context, pages ...Page) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout*time.Duration(max(1, len(pages))))
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Sugar().Debugf(format, args...)
		}))
	defer browserCancel()

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
	); err != nil {
		return nil, eris.Wrap(err, "start browser")
	}

	out := make([]string, 0, len(pages))
	for _, page := range pages {
		start := time.Now()
		var html string
		actions := []chromedp.Action{chromedp.Navigate(page.URL)}
		if page.Settle > 0 {
			actions = append(actions, chromedp.Sleep(page.Settle))
		}
		actions = append(actions, r.expand(page.ExpandSelector))
		if page.WaitSelector != "" {
			actions = append(actions, chromedp.WaitReady(page.WaitSelector, chromedp.ByQuery))
		}
		actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

		if err := chromedp.Run(browserCtx, actions...); err != nil {
			return nil, eris.Wrapf(err, "render %s", page.URL)
		}
		r.logger.Info("page rendered",
			zap.String("url", page.URL),
			zap.Int("bytes", len(html)),
			zap.Duration("duration", time.Since(start)))
		out = append(out, html)
	}
	return out, nil
}

// expand clicks selector when it exists and gives the page time to load
// the revealed rows.
func (r *ChromeRenderer) expand(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if selector == "" {
			return nil
		}
		var nodes []*cdp.Node
		if err := chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			r.logger.Warn("expand button not found, continuing without expansion", zap.String("selector", selector))
			return nil
		}
		if err := chromedp.MouseClickNode(nodes[0]).Do(ctx); err != nil {
			return eris.Wrap(err, "click expand button")
		}
		return chromedp.Sleep(r.cfg.ExpandWait).Do(ctx)
	})
}

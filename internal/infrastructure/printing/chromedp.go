package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ech/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	mmPerInch            = 25.4
	// minimum bottom margin leaving room for the page footer
	footerMarginMM = 10
)

// A4 in millimeters
var a4 = struct{ width, height float64 }{210, 297}

// headless Chrome flags on top of chromedp's defaults
var chromeFlags = map[string]any{
	"disable-gpu":                   true,
	"disable-dev-shm-usage":         true,
	"disable-extensions":            true,
	"disable-background-networking": true,
	"font-render-hinting":           "none",
}

// ChromedpConfig configures the Chrome PDF renderer
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	// RemoteURL points at the DevTools endpoint of a running Chrome. A local
	// headless browser is started when empty.
	RemoteURL string
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpConfigFrom maps the printing section of the configuration
func ChromedpConfigFrom(cfg config.PrintingConfig, logger *zap.Logger) *ChromedpConfig {
	return &ChromedpConfig{
		DefaultTimeout: cfg.Timeout,
		RemoteURL:      cfg.ChromeRemoteURL,
		NoSandbox:      cfg.NoSandbox,
		Logger:         logger,
	}
}

// ChromedpRenderer prints receipts and reports through Chrome. Each render
// opens its own tab on a shared browser started on first use.
type ChromedpRenderer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates the renderer. It does not start Chrome.
func NewChromedpRenderer(cfg *ChromedpConfig) *ChromedpRenderer {
	if cfg == nil {
		cfg = &ChromedpConfig{}
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultChromeTimeout
	}
	r := &ChromedpRenderer{config: cfg, logger: cfg.Logger}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg.NoSandbox)...)
	}
	return r
}

func allocatorOptions(noSandbox bool) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range chromeFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// Render prints req.HTML to an A4 PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "nothing to render", nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tab, closeTab := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	defer context.AfterFunc(ctx, closeTab)()

	started := time.Now()
	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, wrapDocument(req)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = pdfParams(req).Do(ctx)
			return err
		}),
	)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("no PDF after %v", timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, NewRenderError(ErrCodeRenderTimeout, "rendering cancelled", err)
	case err != nil:
		r.logger.Error("Chrome failed to print document", zap.String("title", req.Title), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome print failed", err)
	case len(pdf) == 0:
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome returned an empty PDF", nil)
	}

	result := &RenderResult{PDFData: pdf, PageCount: countPages(pdf), RenderDuration: time.Since(started)}
	r.logger.Debug("Document printed",
		zap.String("title", req.Title),
		zap.Int("pages", result.PageCount),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", result.RenderDuration))
	return result, nil
}

// pdfParams sets up an A4 print with the request margins and footer
func pdfParams(req *RenderRequest) *page.PrintToPDFParams {
	m := req.Margins
	if m.isZero() {
		m = DefaultMargins()
	}
	bottom := float64(m.Bottom)

	p := page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(inches(a4.width)).
		WithPaperHeight(inches(a4.height)).
		WithLandscape(req.Landscape).
		WithMarginTop(inches(float64(m.Top))).
		WithMarginRight(inches(float64(m.Right))).
		WithMarginLeft(inches(float64(m.Left)))
	if req.FooterHTML != "" {
		// an empty header element suppresses Chrome's url and date header
		p = p.WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(req.FooterHTML)
		bottom = max(bottom, footerMarginMM)
	}
	return p.WithMarginBottom(inches(bottom))
}

// wrapDocument turns an HTML fragment into a French UTF-8 document. Full
// documents are returned as is.
func wrapDocument(req *RenderRequest) string {
	head := strings.ToLower(req.HTML[:min(len(req.HTML), 512)])
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		return req.HTML
	}
	var title string
	if req.Title != "" {
		title = "<title>" + html.EscapeString(req.Title) + "</title>"
	}
	return `<!DOCTYPE html><html lang="fr"><head><meta charset="UTF-8">` + title +
		"</head><body>" + req.HTML + "</body></html>"
}

// PageFooter prints "Page n / total" at the bottom of every page
const PageFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#666;">Page <span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// Close stops the browser
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func inches(mm float64) float64 { return mm / mmPerInch }

// countPages counts the page objects of a PDF, at least one
func countPages(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(pages, 1)
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

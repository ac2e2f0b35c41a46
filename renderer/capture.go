package renderer

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/shopmorph/shopmorph/models"
	"github.com/ysmood/gson"
)

// Capture is the raw rendering output of one donor page: document metadata,
// the DOM digest, section candidates, the rendered HTML, and the full-page
// screenshot. Everything downstream consumes this snapshot; no later stage
// reaches back into the live page except through Session crops.
type Capture struct {
	Title      string
	Lang       string
	FinalURL   string
	Viewport   models.Viewport
	PageHeight int
	Nodes      []models.DigestNode
	Candidates []Candidate
	HTML       string
	FullPNG    []byte
	Warnings   []string
}

// Candidate is one top-level section candidate in document order, before
// segmentation filters and caps apply.
type Candidate struct {
	Tag        string
	DomPath    string
	BBox       models.BBox
	TextSample string
	Landmark   bool // header/footer landmark, always kept
}

// Session holds the live page for the duration of one run so the
// fingerprinting stage can take element-region crops after extraction.
// Close it when the run's screenshot work is done.
type Session struct {
	page       *rod.Page
	pageW      int
	pageH      int
	Capture    *Capture
}

// Close navigates the page away and closes the tab.
func (s *Session) Close() {
	if s.page == nil {
		return
	}
	if err := s.page.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
	}
	_ = s.page.Close()
	s.page = nil
}

// CropPNG takes a clipped screenshot of the given page-coordinate region.
// The bbox is clamped to the page bounds first. A per-crop failure returns
// an error the caller records as a warning; it never aborts the run.
func (s *Session) CropPNG(b models.BBox) ([]byte, error) {
	if s.page == nil {
		return nil, errors.New("session closed")
	}
	c := b.Clamp(s.pageW, s.pageH)
	return s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      float64(c.X),
			Y:      float64(c.Y),
			Width:  float64(c.W),
			Height: float64(c.H),
			Scale:  1,
		},
	})
}

// Render loads the target URL and extracts the page capture.
//
// Lifecycle:
//
//  1. Create page + viewport
//  2. Stealth injection (before navigation!)
//  3. Referer header
//  4. Navigate with bounded timeout. A timeout is a WARNING, not fatal:
//     the extractor proceeds with whatever rendered
//  5. Bounded auto-scroll to trigger lazy-load, reset to top
//  6. Full-page screenshot
//  7. In-page digest extraction, validated at the boundary
//
// The returned Session keeps the tab open for crop screenshots; the caller
// must Close it.
func (r *Renderer) Render(ctx context.Context, pageURL string) (*Session, error) {
	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	sess := &Session{page: page}
	ok := false
	defer func() {
		if !ok {
			sess.Close()
		}
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.captureCfg.ViewportWidth,
		Height:            r.captureCfg.ViewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to set viewport",
			err,
		)
	}

	capture := &Capture{}

	// Stealth must be installed before navigation to take effect.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		capture.Warnings = append(capture.Warnings, "stealth injection failed")
	}

	if u, parseErr := url.Parse(pageURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	// Bounded navigation. A slow or erroring resource must not abort the
	// extraction, so a deadline here degrades to a warning.
	navCtx, navCancel := context.WithTimeout(ctx, r.captureCfg.NavTimeout)
	p := page.Context(navCtx)
	if navErr := p.Navigate(pageURL); navErr != nil {
		navCancel()
		if errors.Is(navErr, context.Canceled) && ctx.Err() != nil {
			return nil, models.NewPipelineError(models.ErrCodeNavTimeout, "render canceled", navErr)
		}
		slog.Warn("navigation failed, proceeding with whatever rendered",
			"url", pageURL, "error", navErr)
		capture.Warnings = append(capture.Warnings, "navigation: "+navErr.Error())
	} else {
		if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
			slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
				"error", stableErr)
			capture.Warnings = append(capture.Warnings, "dom never stabilised")
		}
		navCancel()
	}

	// Bind the run context to the page for everything after navigation.
	p = page.Context(ctx)

	if warn := r.autoScroll(ctx, p); warn != "" {
		capture.Warnings = append(capture.Warnings, warn)
	}

	fullPNG, shotErr := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if shotErr != nil {
		slog.Warn("full-page screenshot failed", "error", shotErr)
		capture.Warnings = append(capture.Warnings, "full-page screenshot failed")
	}
	capture.FullPNG = fullPNG

	if err := r.extract(p, capture); err != nil {
		return nil, err
	}

	htmlStr, htmlErr := p.HTML()
	if htmlErr != nil {
		slog.Warn("failed to extract rendered HTML", "error", htmlErr)
		capture.Warnings = append(capture.Warnings, "rendered HTML unavailable")
	}
	capture.HTML = htmlStr

	if capture.FinalURL == "" {
		capture.FinalURL = pageURL
	}

	sess.Capture = capture
	sess.pageW = capture.Viewport.Width
	sess.pageH = capture.PageHeight
	ok = true
	return sess, nil
}

// autoScroll steps the page down to trigger lazy-loaded content, stopping
// early when the scroll position stops advancing, then resets to the top so
// the full-page screenshot starts at y=0. The loop checks the run context
// each iteration so a caller can abort a stuck run without killing the
// process.
func (r *Renderer) autoScroll(ctx context.Context, p *rod.Page) string {
	lastY := -1
	for i := 0; i < r.captureCfg.MaxScrolls; i++ {
		select {
		case <-ctx.Done():
			return "auto-scroll aborted: " + ctx.Err().Error()
		default:
		}

		res, err := p.Eval(`() => {
			window.scrollBy(0, Math.max(350, Math.floor(window.innerHeight * 0.85)));
			return window.scrollY;
		}`)
		if err != nil {
			return "auto-scroll eval failed: " + err.Error()
		}
		y := res.Value.Int()
		if y == lastY {
			break
		}
		lastY = y

		select {
		case <-ctx.Done():
			return "auto-scroll aborted: " + ctx.Err().Error()
		case <-time.After(r.captureCfg.ScrollPause):
		}
	}
	_, _ = p.Eval(`() => window.scrollTo(0, 0)`)
	return ""
}

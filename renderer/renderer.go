package renderer

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/models"
)

// Renderer manages the headless browser lifecycle. One Renderer owns one
// browser process; each Capture call runs on its own page (tab), fully
// sequentially within a run.
type Renderer struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	captureCfg config.CaptureConfig
}

// New launches a headless browser and connects to it.
func New(browserCfg config.BrowserConfig, captureCfg config.CaptureConfig) (*Renderer, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Renderer{
		browser:    browser,
		browserCfg: browserCfg,
		captureCfg: captureCfg,
	}, nil
}

// Close kills the browser process. Call this on shutdown to prevent zombie
// Chrome processes.
func (r *Renderer) Close() {
	slog.Info("renderer shutting down: closing browser")
	r.browser.MustClose()
	slog.Info("renderer shutdown complete")
}

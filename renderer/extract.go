package renderer

import (
	"encoding/json"
	"strings"

	"github.com/go-rod/rod"
	"github.com/shopmorph/shopmorph/models"
)

// extractJS runs inside the page context and returns the raw extraction
// blob. The rendering engine is a boundary: whatever this returns is
// validated and coerced into typed structs in decodeExtraction; nothing
// downstream ever touches an engine-returned shape directly.
//
// Rules implemented in-page (cheap where the layout data lives):
//   - visibility: display/visibility/opacity checks plus a minimum 2x2
//     rendered box (filters 1px tracking pixels)
//   - keep rule: text-bearing (>=2 chars), asset-bearing, clickable CTA,
//     or structural landmark tag
//   - wrapper unwrap: single-child chains covering >=85% of the parent
//     area collapse to the child (common theme-wrapper pattern)
const extractJS = `(maxNodes, svgMaxLen) => {
	const isVisible = (el) => {
		if (!el) return false;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || parseFloat(style.opacity || '1') === 0) return false;
		const r = el.getBoundingClientRect();
		if (r.width < 2 || r.height < 2) return false;
		return true;
	};

	const bboxAbs = (el) => {
		const r = el.getBoundingClientRect();
		return { x: Math.round(r.x + window.scrollX), y: Math.round(r.y + window.scrollY), w: Math.round(r.width), h: Math.round(r.height) };
	};

	const domPath = (el) => {
		const parts = [];
		let cur = el;
		let depth = 0;
		while (cur && cur.nodeType === 1 && depth < 7) {
			let part = cur.tagName.toLowerCase();
			if (cur.id) part += '#' + cur.id;
			const cls = (cur.className || '').toString().trim().split(/\s+/).filter(Boolean).slice(0, 2);
			if (cls.length) part += '.' + cls.join('.');
			parts.unshift(part);
			cur = cur.parentElement;
			depth++;
		}
		return parts.join('>');
	};

	const pickText = (el) => ((el && el.innerText) || '').replace(/\s+/g, ' ').trim();

	const getStyle = (el) => {
		const s = window.getComputedStyle(el);
		return {
			display: s.display,
			position: s.position,
			fontFamily: s.fontFamily,
			fontSize: s.fontSize,
			fontWeight: s.fontWeight,
			lineHeight: s.lineHeight,
			color: s.color,
			backgroundColor: s.backgroundColor,
			textAlign: s.textAlign,
			gap: s.gap,
			justifyContent: s.justifyContent,
			alignItems: s.alignItems,
		};
	};

	const doc = {
		title: document.title || null,
		lang: document.documentElement.getAttribute('lang') || null,
		url: location.href,
	};

	const viewport = { width: window.innerWidth, height: window.innerHeight, deviceScaleFactor: window.devicePixelRatio || 1 };
	const pageHeight = Math.max(document.documentElement.scrollHeight, document.body.scrollHeight);

	// DOM digest: visible, content-bearing nodes.
	const digest = [];
	const candidates = Array.from(document.querySelectorAll('h1,h2,h3,p,li,a,button,img,svg,details,summary,video,section,header,footer,main,article,div'));
	for (const el of candidates) {
		if (digest.length >= maxNodes) break;
		if (!isVisible(el)) continue;

		const tag = el.tagName.toLowerCase();
		const b = bboxAbs(el);
		const text = (tag === 'img' || tag === 'svg' || tag === 'video') ? '' : pickText(el);
		const href = tag === 'a' ? (el.getAttribute('href') || null) : null;
		const src = (tag === 'img') ? (el.currentSrc || el.src || null)
			: (tag === 'video') ? (el.currentSrc || el.src || null)
			: null;
		const alt = tag === 'img' ? (el.alt || null) : null;
		const ariaLabel = el.getAttribute('aria-label') || null;

		const bg = window.getComputedStyle(el).backgroundImage;
		let bgUrl = null;
		if (bg && bg !== 'none') {
			const m = bg.match(/url\(["']?(.*?)["']?\)/i);
			if (m && m[1]) bgUrl = m[1];
		}

		let svgMarkup = null;
		if (tag === 'svg') {
			svgMarkup = (el.outerHTML || '').slice(0, svgMaxLen);
		}

		const isTextLike = text && text.length >= 2;
		const isAssetLike = !!src || !!bgUrl || tag === 'svg';
		const isCtaLike = tag === 'button' || (tag === 'a' && text.length > 0);
		const keep =
			isTextLike ||
			isAssetLike ||
			isCtaLike ||
			tag === 'details' || tag === 'summary' ||
			tag === 'section' || tag === 'header' || tag === 'footer' || tag === 'main' || tag === 'article';
		if (!keep) continue;

		digest.push({
			tag,
			bbox: b,
			domPath: domPath(el),
			text: text ? text.slice(0, 600) : null,
			href,
			src,
			alt,
			ariaLabel,
			bgUrl,
			svgMarkup,
			style: getStyle(el),
		});
	}

	// Section candidates: direct children of the primary content root, with
	// theme-wrapper chains unwrapped.
	const unwrap = (el) => {
		let cur = el;
		for (let i = 0; i < 5; i++) {
			const kids = Array.from(cur.children).filter(isVisible);
			if (kids.length !== 1) break;
			const pa = cur.getBoundingClientRect();
			const ka = kids[0].getBoundingClientRect();
			const parentArea = Math.max(1, pa.width * pa.height);
			if ((ka.width * ka.height) / parentArea < 0.85) break;
			cur = kids[0];
		}
		return cur;
	};

	const root = unwrap(document.querySelector('main') || document.body);
	const sectionCandidates = [];
	for (const child of Array.from(root.children)) {
		if (!isVisible(child)) continue;
		const el = unwrap(child);
		sectionCandidates.push({
			tag: el.tagName.toLowerCase(),
			domPath: domPath(el),
			bbox: bboxAbs(el),
			textSample: pickText(el).slice(0, 300) || null,
			landmark: false,
		});
	}

	const header = document.querySelector('header');
	if (header && isVisible(header)) {
		sectionCandidates.unshift({ tag: 'header', domPath: domPath(header), bbox: bboxAbs(header), textSample: pickText(header).slice(0, 200) || null, landmark: true });
	}
	const footer = document.querySelector('footer');
	if (footer && isVisible(footer)) {
		sectionCandidates.push({ tag: 'footer', domPath: domPath(footer), bbox: bboxAbs(footer), textSample: pickText(footer).slice(0, 200) || null, landmark: true });
	}

	return { doc, viewport, pageHeight, digest, sectionCandidates };
}`

// svgMarkupMaxLen bounds inline-SVG markup carried per node; the asset
// registry hashes at most this much.
const svgMarkupMaxLen = 4096

// rawExtraction is the engine-boundary schema. Only decodeExtraction reads
// it; everything else sees models types.
type rawExtraction struct {
	Doc struct {
		Title string `json:"title"`
		Lang  string `json:"lang"`
		URL   string `json:"url"`
	} `json:"doc"`
	Viewport struct {
		Width             int     `json:"width"`
		Height            int     `json:"height"`
		DeviceScaleFactor float64 `json:"deviceScaleFactor"`
	} `json:"viewport"`
	PageHeight int `json:"pageHeight"`
	Digest     []struct {
		Tag       string             `json:"tag"`
		BBox      models.BBox        `json:"bbox"`
		DomPath   string             `json:"domPath"`
		Text      string             `json:"text"`
		Href      string             `json:"href"`
		Src       string             `json:"src"`
		Alt       string             `json:"alt"`
		AriaLabel string             `json:"ariaLabel"`
		BgURL     string             `json:"bgUrl"`
		SVGMarkup string             `json:"svgMarkup"`
		Style     models.StyleSample `json:"style"`
	} `json:"digest"`
	SectionCandidates []struct {
		Tag        string      `json:"tag"`
		DomPath    string      `json:"domPath"`
		BBox       models.BBox `json:"bbox"`
		TextSample string      `json:"textSample"`
		Landmark   bool        `json:"landmark"`
	} `json:"sectionCandidates"`
}

// extract evaluates the in-page extraction and coerces the result into the
// Capture. A completely blank page (zero candidate nodes) is NOT an error
// here; it surfaces as zero emitted sections downstream.
func (r *Renderer) extract(p *rod.Page, capture *Capture) error {
	res, err := p.Eval(extractJS, r.captureCfg.MaxDigestNodes, svgMarkupMaxLen)
	if err != nil {
		return models.NewPipelineError(
			models.ErrCodeExtraction,
			"in-page digest extraction failed",
			err,
		)
	}

	blob, err := json.Marshal(res.Value.Val())
	if err != nil {
		return models.NewPipelineError(models.ErrCodeExtraction, "digest blob not serializable", err)
	}
	return decodeExtraction(blob, capture)
}

// decodeExtraction validates the engine blob against the schema and coerces
// it into the capture, dropping malformed entries (empty tag, zero-size
// box) instead of failing the run on them.
func decodeExtraction(blob []byte, capture *Capture) error {
	var raw rawExtraction
	if err := json.Unmarshal(blob, &raw); err != nil {
		return models.NewPipelineError(models.ErrCodeExtraction, "digest blob does not match schema", err)
	}

	capture.Title = raw.Doc.Title
	capture.Lang = raw.Doc.Lang
	capture.FinalURL = raw.Doc.URL
	capture.Viewport = models.Viewport{
		Width:             raw.Viewport.Width,
		Height:            raw.Viewport.Height,
		DeviceScaleFactor: raw.Viewport.DeviceScaleFactor,
	}
	capture.PageHeight = raw.PageHeight

	for _, n := range raw.Digest {
		tag := strings.TrimSpace(strings.ToLower(n.Tag))
		if tag == "" || n.BBox.W <= 0 || n.BBox.H <= 0 {
			continue
		}
		capture.Nodes = append(capture.Nodes, models.DigestNode{
			Tag:       tag,
			BBox:      n.BBox,
			DomPath:   n.DomPath,
			Text:      n.Text,
			Href:      n.Href,
			Src:       n.Src,
			Alt:       n.Alt,
			AriaLabel: n.AriaLabel,
			BgURL:     n.BgURL,
			SVGMarkup: n.SVGMarkup,
			Style:     n.Style,
		})
	}

	for _, c := range raw.SectionCandidates {
		tag := strings.TrimSpace(strings.ToLower(c.Tag))
		if tag == "" || c.BBox.W <= 0 || c.BBox.H <= 0 {
			continue
		}
		capture.Candidates = append(capture.Candidates, Candidate{
			Tag:        tag,
			DomPath:    c.DomPath,
			BBox:       c.BBox,
			TextSample: c.TextSample,
			Landmark:   c.Landmark,
		})
	}
	return nil
}

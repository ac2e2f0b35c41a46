package models

// BBox is an absolute bounding box in page coordinates (CSS pixels,
// origin at the top-left of the full document, not the viewport).
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the box area in square pixels.
func (b BBox) Area() int {
	return b.W * b.H
}

// MaxDim returns the larger of width and height.
func (b BBox) MaxDim() int {
	if b.W > b.H {
		return b.W
	}
	return b.H
}

// Overlap returns the intersection area of two boxes in square pixels.
func (b BBox) Overlap(o BBox) int {
	x := max(0, min(b.X+b.W, o.X+o.W)-max(b.X, o.X))
	y := max(0, min(b.Y+b.H, o.Y+o.H)-max(b.Y, o.Y))
	return x * y
}

// Clamp constrains the box to a page of the given dimensions, keeping at
// least a 1x1 box. Crop screenshots fail on out-of-page clips, so every
// bbox that reaches the screenshotter goes through this first.
func (b BBox) Clamp(pageW, pageH int) BBox {
	x := max(0, min(pageW-1, b.X))
	y := max(0, min(pageH-1, b.Y))
	w := max(1, min(pageW-x, b.W))
	h := max(1, min(pageH-y, b.H))
	return BBox{X: x, Y: y, W: w, H: h}
}

// StyleSample is the computed-style subset captured per digest node.
type StyleSample struct {
	Display         string `json:"display,omitempty"`
	Position        string `json:"position,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
	FontSize        string `json:"fontSize,omitempty"`
	FontWeight      string `json:"fontWeight,omitempty"`
	LineHeight      string `json:"lineHeight,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextAlign       string `json:"textAlign,omitempty"`
	Gap             string `json:"gap,omitempty"`
	JustifyContent  string `json:"justifyContent,omitempty"`
	AlignItems      string `json:"alignItems,omitempty"`
}

// DigestNode is one visible, content-bearing DOM element. Nodes are
// recomputed fresh every run and are never persisted standalone; they only
// appear inside a Section's node subset.
//
// DomPath is a short ancestor chain (tag#id.class, depth-capped) meant for
// human debugging and dedup keys. It is NOT a strict CSS selector.
type DigestNode struct {
	Tag       string      `json:"tag"`
	BBox      BBox        `json:"bbox"`
	DomPath   string      `json:"domPath"`
	Text      string      `json:"text,omitempty"`
	Href      string      `json:"href,omitempty"`
	Src       string      `json:"src,omitempty"`
	Alt       string      `json:"alt,omitempty"`
	AriaLabel string      `json:"ariaLabel,omitempty"`
	BgURL     string      `json:"bgUrl,omitempty"`
	SVGMarkup string      `json:"svgMarkup,omitempty"`
	Style     StyleSample `json:"style"`
}

// HasAsset reports whether the node carries a media reference.
func (n *DigestNode) HasAsset() bool {
	return n.Src != "" || n.BgURL != "" || n.Tag == "svg"
}

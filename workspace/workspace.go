// Package workspace persists run artifacts to disk: the passport and plan
// JSON documents plus the full-page and per-section screenshot crops. Runs
// are keyed by donor host; the most recent run for a host overwrites the
// previous one, so "latest" is always the host directory itself.
package workspace

import (
	"encoding/json"
	"fmt"
	nurl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopmorph/shopmorph/models"
)

const (
	passportFile = "passport.json"
	planFile     = "plan.json"
	fullShot     = "page.png"
	sectionsDir  = "sections"
)

// Workspace is a root directory holding one subdirectory per donor host.
type Workspace struct {
	root string
}

// New opens (creating if needed) a workspace rooted at dir.
func New(dir string) (*Workspace, error) {
	if dir == "" {
		dir = "workspace"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeMissingArtifact, "create workspace root", err)
	}
	return &Workspace{root: dir}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// RunDir returns the artifact directory for one donor URL, creating it and
// its sections subdirectory. Prior artifacts for the same host are removed
// so a re-run never mixes crops from two captures.
func (w *Workspace) RunDir(pageURL string) (string, error) {
	dir := filepath.Join(w.root, hostKey(pageURL))
	if err := os.RemoveAll(filepath.Join(dir, sectionsDir)); err != nil {
		return "", models.NewPipelineError(models.ErrCodeMissingArtifact, "reset sections dir", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, sectionsDir), 0o755); err != nil {
		return "", models.NewPipelineError(models.ErrCodeMissingArtifact, "create run dir", err)
	}
	return dir, nil
}

// SavePassport writes the passport document for its URL's run directory.
func (w *Workspace) SavePassport(p *models.Passport) error {
	dir := filepath.Join(w.root, hostKey(p.URL))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.NewPipelineError(models.ErrCodeMissingArtifact, "create run dir", err)
	}
	return writeJSON(filepath.Join(dir, passportFile), p)
}

// LoadPassport reads the passport for a donor URL.
func (w *Workspace) LoadPassport(pageURL string) (*models.Passport, error) {
	path := filepath.Join(w.root, hostKey(pageURL), passportFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeMissingArtifact,
			fmt.Sprintf("no passport for %s (capture first)", pageURL), err)
	}
	var p models.Passport
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeMissingArtifact, "corrupt passport document", err)
	}
	return &p, nil
}

// SavePlan writes the compiled plan alongside its passport.
func (w *Workspace) SavePlan(pageURL string, plan *models.Plan) error {
	return writeJSON(filepath.Join(w.root, hostKey(pageURL), planFile), plan)
}

// LoadPlan reads the compiled plan for a donor URL.
func (w *Workspace) LoadPlan(pageURL string) (*models.Plan, error) {
	data, err := os.ReadFile(filepath.Join(w.root, hostKey(pageURL), planFile))
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeMissingArtifact,
			fmt.Sprintf("no plan for %s", pageURL), err)
	}
	var p models.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeMissingArtifact, "corrupt plan document", err)
	}
	return &p, nil
}

// SaveFullShot writes the full-page screenshot.
func (w *Workspace) SaveFullShot(pageURL string, png []byte) error {
	return writeFile(filepath.Join(w.root, hostKey(pageURL), fullShot), png)
}

// SaveSectionShot writes one section crop, named by section ID.
func (w *Workspace) SaveSectionShot(pageURL, sectionID string, png []byte) error {
	return writeFile(filepath.Join(w.root, hostKey(pageURL), sectionsDir, sectionID+".png"), png)
}

// SectionShotPath returns where a section crop lives on disk, whether or
// not it exists yet.
func (w *Workspace) SectionShotPath(pageURL, sectionID string) string {
	return filepath.Join(w.root, hostKey(pageURL), sectionsDir, sectionID+".png")
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return models.NewPipelineError(models.ErrCodeInternal, "encode artifact", err)
	}
	return writeFile(path, append(data, '\n'))
}

// writeFile writes via a temp file and rename so a crash mid-write never
// leaves a truncated artifact behind.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return models.NewPipelineError(models.ErrCodeMissingArtifact, "write artifact", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return models.NewPipelineError(models.ErrCodeMissingArtifact, "finalize artifact", err)
	}
	return nil
}

// hostKey maps a donor URL to a filesystem-safe directory name.
func hostKey(pageURL string) string {
	u, err := nurl.Parse(pageURL)
	if err != nil || u.Host == "" {
		return sanitize(pageURL)
	}
	return sanitize(u.Host)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

package engine

import (
	"os"
	"path/filepath"
	"runtime"
)

// PathResolver locates the engine executable and its addon scripts.
// The default implementation probes the installed layout; tests substitute
// their own.
type PathResolver interface {
	// EnginePath returns the engine executable path, or *NotFoundError.
	EnginePath() (string, error)
	// EntryAddonPath returns the mandatory entry addon script, or *NotFoundError.
	EntryAddonPath() (string, error)
	// AnchorAddonPath returns the trailing anchor addon script; ok is false
	// when the installation does not ship one.
	AnchorAddonPath() (string, bool)
	// RuntimePath returns the interpreter used by the script preprocessor,
	// falling back to one on PATH.
	RuntimePath() string
}

// Layout resolves engine components relative to the running executable and,
// in dev mode, the project checkout. Installed layouts are probed in order:
// bin/ next to the executable, a hidden .core/ directory, then the resource
// directory itself.
type Layout struct {
	// DevMode switches to checkout-relative paths (engine-core/ tree) so
	// addon edits are picked up without reinstalling.
	DevMode bool

	// ExeDir is the directory of the running executable.
	ExeDir string

	// ProjectRoot is the checkout root, only consulted in dev mode.
	ProjectRoot string

	// ResourceDir holds installed support files (addons, bundled runtime).
	ResourceDir string
}

// NewLayout builds a Layout from the current process environment.
func NewLayout(devMode bool) Layout {
	l := Layout{DevMode: devMode}

	if exe, err := os.Executable(); err == nil {
		l.ExeDir = filepath.Dir(exe)
		l.ResourceDir = filepath.Join(l.ExeDir, "resources")
	}
	if cwd, err := os.Getwd(); err == nil {
		l.ProjectRoot = cwd
	}

	return l
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "engine.exe"
	}
	return "engine"
}

// EnginePath probes the candidate locations in priority order and returns
// the first existing engine binary.
func (l Layout) EnginePath() (string, error) {
	name := engineBinaryName()

	var candidates []string
	if l.ExeDir != "" {
		candidates = append(candidates,
			filepath.Join(l.ExeDir, "bin", name),
			filepath.Join(l.ExeDir, ".core", name),
		)
	}
	if l.DevMode && l.ProjectRoot != "" {
		candidates = append(candidates,
			filepath.Join(l.ProjectRoot, "binaries", name),
			filepath.Join(l.ProjectRoot, "engine-core", "dist", name),
		)
	}
	if l.ResourceDir != "" {
		candidates = append(candidates,
			filepath.Join(l.ResourceDir, name),
			filepath.Join(l.ResourceDir, ".core", name),
			filepath.Join(l.ResourceDir, "engine", name),
		)
	}
	if l.ExeDir != "" {
		candidates = append(candidates, filepath.Join(l.ExeDir, name))
	}

	if p := firstExisting(candidates); p != "" {
		return p, nil
	}
	return "", &NotFoundError{Name: name}
}

// EntryAddonPath locates the entry addon the engine is always started with.
func (l Layout) EntryAddonPath() (string, error) {
	if l.DevMode && l.ProjectRoot != "" {
		// Checkout copy directly, for hot reloading during development.
		p := filepath.Join(l.ProjectRoot, "engine-core", "addons", "entry.py")
		if fileExists(p) {
			return p, nil
		}
	}

	candidates := []string{
		filepath.Join(l.ResourceDir, "resources", "addons", "entry.py"),
		filepath.Join(l.ResourceDir, "addons", "entry.py"),
		filepath.Join(l.ResourceDir, "entry.py"),
	}
	if p := firstExisting(candidates); p != "" {
		return p, nil
	}
	return "", &NotFoundError{Name: "entry.py"}
}

// AnchorAddonPath locates the anchor addon, which runs after all user
// scripts to capture final flow state. Optional.
func (l Layout) AnchorAddonPath() (string, bool) {
	entry, err := l.EntryAddonPath()
	if err != nil {
		return "", false
	}
	p := filepath.Join(filepath.Dir(entry), "anchor.py")
	if fileExists(p) {
		return p, true
	}
	return "", false
}

// RuntimePath returns the bundled interpreter next to the engine binary when
// present, otherwise "python" from PATH. Dev mode always uses PATH.
func (l Layout) RuntimePath() string {
	if l.DevMode {
		return "python"
	}

	enginePath, err := l.EnginePath()
	if err != nil {
		return "python"
	}
	engineDir := filepath.Dir(enginePath)

	var candidates []string
	if runtime.GOOS == "windows" {
		candidates = []string{filepath.Join(engineDir, "python.exe")}
	} else {
		candidates = []string{
			filepath.Join(engineDir, "python3"),
			filepath.Join(engineDir, "python3.12"),
			filepath.Join(engineDir, "_internal", "py_runtime", "Python"),
		}
	}

	if p := firstExisting(candidates); p != "" {
		return p
	}
	return "python"
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

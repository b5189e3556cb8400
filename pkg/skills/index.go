package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/lightpattern/skillet/pkg/logger"
	"github.com/pkg/errors"
)

// Index owns the name -> Metadata mapping for all discovered skills.
// Roots are scanned in order; when two roots declare the same skill name,
// the later root wins and a diagnostic is recorded. The mapping is
// replaced wholesale on each scan: readers never observe a partially
// updated registry.
type Index struct {
	mu      sync.RWMutex
	roots   []string
	entries map[string]Metadata
	order   []string
	diags   []Diagnostic
}

// NewIndex creates an index over the given roots. No scan is performed;
// call Scan before reading.
func NewIndex(roots ...string) *Index {
	return &Index{
		roots:   append([]string(nil), roots...),
		entries: make(map[string]Metadata),
	}
}

// Scan walks every configured root and atomically replaces the registry
// with the result. Per-skill problems (unparseable frontmatter, name
// collisions) become diagnostics and never abort the scan. The old
// mapping is retained only when the scan fails outright, i.e. when every
// configured root is unreadable.
func (ix *Index) Scan(ctx context.Context) ([]Diagnostic, error) {
	scanID := uuid.NewString()
	log := logger.G(ctx).WithField("scan_id", scanID)

	ix.mu.RLock()
	roots := append([]string(nil), ix.roots...)
	ix.mu.RUnlock()

	newEntries := make(map[string]Metadata, len(roots)*8)
	var order []string
	var diags []Diagnostic
	var rootErrs *multierror.Error
	readableRoots := 0

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			diags = append(diags, Diagnostic{
				ScanID: scanID,
				Kind:   DiagRootUnreadable,
				Path:   root,
				Detail: err.Error(),
			})
			rootErrs = multierror.Append(rootErrs, errors.Wrapf(err, "failed to read root %s", root))
			continue
		}
		readableRoots++

		for _, entry := range entries {
			entryPath := filepath.Join(root, entry.Name())

			// os.Stat (not entry.IsDir) so symlinked skill directories work
			info, err := os.Stat(entryPath)
			if err != nil || !info.IsDir() {
				continue
			}

			skillPath := filepath.Join(entryPath, skillFileName)
			if _, err := os.Stat(skillPath); err != nil {
				continue
			}

			md, perr := ParseFile(skillPath, entry.Name())
			if perr != nil {
				diags = append(diags, Diagnostic{
					ScanID: scanID,
					Kind:   DiagParseFailure,
					Path:   skillPath,
					Detail: perr.Error(),
				})
				log.WithError(perr).WithField("path", skillPath).Warn("skill registered with default metadata")
			}
			md.Root = root

			if prev, exists := newEntries[md.Name]; exists {
				diags = append(diags, Diagnostic{
					ScanID: scanID,
					Kind:   DiagNameCollision,
					Path:   skillPath,
					Detail: fmt.Sprintf("skill %q already registered from %s; this source overrides it", md.Name, prev.Path),
				})
			} else {
				order = append(order, md.Name)
			}
			newEntries[md.Name] = md
		}
	}

	if len(roots) > 0 && readableRoots == 0 {
		// Every root unreadable: keep the previous registry rather than
		// wiping it over what is likely a transient filesystem problem.
		ix.mu.Lock()
		ix.diags = diags
		ix.mu.Unlock()
		return diags, rootErrs.ErrorOrNil()
	}

	ix.mu.Lock()
	ix.entries = newEntries
	ix.order = order
	ix.diags = diags
	ix.mu.Unlock()

	log.WithField("skills", len(newEntries)).WithField("diagnostics", len(diags)).Debug("scan complete")
	return diags, nil
}

// AddRoot appends a directory to the scanned set and rescans all roots so
// that override precedence stays consistent.
func (ix *Index) AddRoot(ctx context.Context, path string) ([]Diagnostic, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve skills directory")
	}

	ix.mu.Lock()
	exists := false
	for _, r := range ix.roots {
		if r == abs {
			exists = true
			break
		}
	}
	if !exists {
		ix.roots = append(ix.roots, abs)
	}
	ix.mu.Unlock()

	return ix.Scan(ctx)
}

// GetMetadata returns the metadata for name, or an error wrapping
// ErrNotFound when the name is not registered.
func (ix *Index) GetMetadata(name string) (Metadata, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	md, ok := ix.entries[name]
	if !ok {
		return Metadata{}, errors.Wrapf(ErrNotFound, "skill %q", name)
	}
	return md, nil
}

// Has reports whether name is registered.
func (ix *Index) Has(name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.entries[name]
	return ok
}

// ListAll returns a snapshot of all registered skills in discovery order.
func (ix *Index) ListAll() []Metadata {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Metadata, 0, len(ix.order))
	for _, name := range ix.order {
		if md, ok := ix.entries[name]; ok {
			out = append(out, md)
		}
	}
	return out
}

// Names returns the set of registered skill names.
func (ix *Index) Names() map[string]struct{} {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]struct{}, len(ix.entries))
	for name := range ix.entries {
		out[name] = struct{}{}
	}
	return out
}

// Len returns the number of registered skills.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Roots returns the configured root directories in scan order.
func (ix *Index) Roots() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]string(nil), ix.roots...)
}

// Diagnostics returns the diagnostics recorded by the most recent scan.
func (ix *Index) Diagnostics() []Diagnostic {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Diagnostic(nil), ix.diags...)
}

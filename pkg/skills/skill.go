// Package skills maintains the registry of loadable skills. Skills are
// packaged as directories containing a SKILL.md file with YAML frontmatter
// describing the skill; the index scans one or more root directories and
// keeps an authoritative name -> metadata mapping that the rest of the
// server reads.
package skills

import (
	"github.com/pkg/errors"
)

const skillFileName = "SKILL.md"

// ErrNotFound is returned when a referenced skill name is absent from the registry.
var ErrNotFound = errors.New("skill not found")

// Metadata is the lightweight, searchable description of one discovered
// skill. The full SKILL.md body is not held here; it is read on demand
// when the skill is loaded.
type Metadata struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	Version         string   `json:"version"`
	AutoActivate    bool     `json:"auto_activate"`
	EstimatedTokens int      `json:"estimated_tokens"`

	// Path is the absolute path of the skill's SKILL.md, kept so the
	// content can be re-read on load and rescans can attribute entries
	// back to their origin.
	Path string `json:"-"`
	// Root is the scanned root directory that produced this entry.
	Root string `json:"-"`
}

// DiagnosticKind classifies scan diagnostics.
type DiagnosticKind string

const (
	// DiagParseFailure records a SKILL.md whose frontmatter could not be
	// parsed. The skill is still registered using defaults.
	DiagParseFailure DiagnosticKind = "parse_failure"
	// DiagNameCollision records two sources declaring the same skill name.
	// The most recently scanned source wins.
	DiagNameCollision DiagnosticKind = "name_collision"
	// DiagRootUnreadable records a configured root that could not be read.
	DiagRootUnreadable DiagnosticKind = "root_unreadable"
)

// Diagnostic records a non-fatal problem encountered during a scan.
// Diagnostics never abort a scan; one malformed skill must not prevent
// the rest from loading.
type Diagnostic struct {
	ScanID string         `json:"scan_id"`
	Kind   DiagnosticKind `json:"kind"`
	Path   string         `json:"path"`
	Detail string         `json:"detail"`
}

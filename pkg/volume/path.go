// Package volume enumerates locally visible volumes and maintains the
// serial-number → volume-path map the rest of the engine resolves
// against. Serial numbers are not guaranteed unique across volumes, so
// the registry detects collisions and poisons the ambiguous serial
// rather than resolving it to either volume silently.
package volume

import (
	"fmt"
	"strings"
)

// Path is a validated canonical volume root. The zero value is the
// invalid placeholder (also used as the poisoned marker inside the
// registry) and fails IsValid.
//
// Two rendered forms exist: the share form ends with a separator and is
// the one unprivileged sessions open; the device form drops it and is
// required for privileged journal reads. A session must use one form
// consistently for every operation against the same journal.
type Path struct {
	share string
}

// NewPath canonicalizes a volume root string into a Path. The input may
// carry or omit the trailing separator.
func NewPath(raw string) (Path, error) {
	trimmed := strings.TrimRight(raw, `\/`)
	if trimmed == "" {
		return Path{}, fmt.Errorf("invalid volume path %q", raw)
	}
	return Path{share: trimmed + `\`}, nil
}

// IsValid distinguishes a real path from the zero/poisoned placeholder.
func (p Path) IsValid() bool { return p.share != "" }

// Share returns the trailing-separator form ("\\?\Volume{...}\").
func (p Path) Share() string { return p.share }

// Device returns the separator-less form ("\\?\Volume{...}").
func (p Path) Device() string { return strings.TrimRight(p.share, `\`) }

func (p Path) String() string {
	if !p.IsValid() {
		return "<invalid>"
	}
	return p.share
}

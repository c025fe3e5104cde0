// Package scanner holds the extraction strategies a source can be collected with.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"Newsroom/internal/domain"
)

// ErrUnknownScanner is returned when a strategy name has no registered implementation.
var ErrUnknownScanner = errors.New("scanner is not registered")

// Request carries all parameters required to scan one source.
type Request struct {
	Source domain.Source
	Limit  int
}

// Scanner captures a single extraction strategy (LLM over reader text, RSS/Atom feed, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.ExtractedItem, error)
}

// Registry maps strategy names to scanners.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry pre-filled with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: make(map[string]Scanner, len(scanners))}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner under its lower-cased name.
func (r *Registry) Register(s Scanner) {
	if s == nil {
		return
	}
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[key(s.Name())] = s
}

// Resolve returns a scanner by name, wrapping ErrUnknownScanner when absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if s, ok := r.scanners[key(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownScanner, name, strings.Join(r.Names(), ", "))
}

// Validate checks that every configured strategy resolves.
func (r *Registry) Validate(strategies []string) error {
	if len(strategies) == 0 {
		return errors.New("no scanner strategies configured")
	}
	var errs []error
	for _, name := range strategies {
		if _, err := r.Resolve(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

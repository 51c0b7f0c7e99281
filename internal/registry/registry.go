// Package registry accumulates static-mode plugin registrations and emits
// the generated name-to-entry-point table.
//
// In static mode the host's runtime loader cannot resolve plugins by name
// after link time, so activation needs an explicit registry compiled into
// the program image. The registry, viewed as a mapping, is total and
// injective over the build's static-mode plugins: one entry per plugin, no
// duplicate names, no plugin missing an entry. A duplicate name is a hard
// configuration error, never a silently-overwritten entry.
package registry

import (
	"sort"

	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/moduleid"
)

// Entry maps one plugin name to its registration entry-point symbol.
type Entry struct {
	Plugin moduleid.PluginName
	Symbol string
}

// Static is the build-wide accumulator of static registry entries.
type Static struct {
	entries map[moduleid.PluginName]string
}

// NewStatic creates an empty registry.
func NewStatic() *Static {
	return &Static{entries: make(map[moduleid.PluginName]string)}
}

// Add records one plugin's registration entry point. A duplicate plugin
// name is a ConfigurationError naming the plugin.
func (s *Static) Add(plugin moduleid.PluginName, symbol string) error {
	if _, exists := s.entries[plugin]; exists {
		return &config.ConfigurationError{
			Subject: string(plugin),
			Reason:  "duplicate plugin name in static registry",
		}
	}
	s.entries[plugin] = symbol
	return nil
}

// Len returns the number of registered plugins.
func (s *Static) Len() int {
	return len(s.entries)
}

// Entries returns the registry as a list sorted by plugin name, so the
// generated output is reproducible across builds.
func (s *Static) Entries() []Entry {
	entries := make([]Entry, 0, len(s.entries))
	for plugin, symbol := range s.entries {
		entries = append(entries, Entry{Plugin: plugin, Symbol: symbol})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Plugin < entries[j].Plugin
	})
	return entries
}

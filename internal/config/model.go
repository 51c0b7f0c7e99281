package config

import (
	"fmt"

	"github.com/vk/solverforge/internal/moduleid"
)

// Mode selects the plugin deployment strategy for an entire build
// invocation. It is always passed explicitly; no component reads it from
// ambient state.
type Mode int

const (
	// ModeDynamic builds each plugin as an independently loadable artifact.
	ModeDynamic Mode = iota
	// ModeStatic folds plugin objects into the main aggregate and emits a
	// generated name-to-entry-point registry.
	ModeStatic
)

// String returns the mode's configuration spelling.
func (m Mode) String() string {
	switch m {
	case ModeDynamic:
		return "shared"
	case ModeStatic:
		return "static"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts the configuration spelling of a build mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "shared":
		return ModeDynamic, nil
	case "static":
		return ModeStatic, nil
	default:
		return 0, &ConfigurationError{
			Subject: s,
			Reason:  "invalid build mode: must be 'shared' or 'static'",
		}
	}
}

// Model is the unified, format-agnostic representation of one build
// description: the project identity, the module groups to discover, the
// plugins to link, and the global build mode.
type Model struct {
	// Project is the namespace used for installed headers, test fixtures
	// and artifact names, e.g. "Solvers".
	Project string
	// Mode is the global plugin deployment strategy.
	Mode Mode
	// Groups lists the explicitly configured top-level group directories.
	Groups []*Group
	// Plugins lists the toolboxes to link, in declaration order.
	Plugins []*Plugin
}

// Group is the format-agnostic representation of a `group` block.
type Group struct {
	Name string
	// AutoDiscover marks the group as a solver-family directory whose
	// `src` subdirectories each become one module.
	AutoDiscover bool
	// Defines holds extra preprocessor definitions applied to every
	// translation unit of every module in the group.
	Defines map[string]string
}

// Plugin is the format-agnostic representation of a `toolbox` block.
type Plugin struct {
	Name moduleid.PluginName
	// Modules names the member modules in their canonical display form.
	Modules []string
	// Entry is the registration entry-point symbol. Empty means the
	// conventional default, `<Name>_Register`.
	Entry string
}

// EntrySymbol returns the plugin's registration entry-point symbol,
// applying the naming convention when none was configured.
func (p *Plugin) EntrySymbol() string {
	if p.Entry != "" {
		return p.Entry
	}
	return p.Name.Base() + "_Register"
}

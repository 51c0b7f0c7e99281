package moduleid

import "path"

// ModuleID is the structured representation of a unique module identifier.
// It is modeled as a group name plus an optional subdirectory segment, which
// is the maximum depth the discovery layout produces.
type ModuleID struct {
	group string
	sub   string
}

// New creates an identifier for a module that is a top-level group itself.
func New(group string) ModuleID {
	return ModuleID{group: group}
}

// NewSub creates an identifier for a module discovered as a subdirectory of
// an auto-discoverable group.
func NewSub(group, sub string) ModuleID {
	return ModuleID{group: group, sub: sub}
}

// Group returns the top-level group segment.
func (id ModuleID) Group() string {
	return id.group
}

// Sub returns the subdirectory segment, or "" for a group-level module.
func (id ModuleID) Sub() string {
	return id.sub
}

// IsZero reports whether the identifier is the zero value.
func (id ModuleID) IsZero() bool {
	return id.group == ""
}

// String serializes the identifier into its canonical display form,
// e.g. "KSPSolvers/BSSCR" or "Assembly".
func (id ModuleID) String() string {
	if id.sub == "" {
		return id.group
	}
	return id.group + "/" + id.sub
}

// Token derives the module's compile-time identity token: the canonical name
// with path separators stripped, e.g. "KSPSolversBSSCR". Stripping the
// separator can make distinct identifiers coincide (group "FooBar" versus
// "Foo/Bar"); discovery rejects such a pair as a configuration error.
func (id ModuleID) Token() string {
	return id.group + id.sub
}

// Equal checks for equality between two identifiers.
func (id ModuleID) Equal(other ModuleID) bool {
	return id.group == other.group && id.sub == other.sub
}

// PluginName is the typed name of a plugin ("toolbox"). It is kept distinct
// from ModuleID because plugins and modules occupy different namespaces.
type PluginName string

// Base returns the final segment of the plugin name. Artifact file names and
// default entry symbols are built from it, so a nested name like
// "Viscous/Toolbox" still produces "Toolbox_Register" and
// <project>_Toolboxmodule.
func (p PluginName) Base() string {
	return path.Base(string(p))
}

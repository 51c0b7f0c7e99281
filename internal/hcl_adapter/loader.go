// Package hcl_adapter is the HCL-specific implementation of the
// config.Loader interface. It parses a build description file and translates
// it into the format-agnostic config model.
package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"

	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a new HCL build description loader reading through fs.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// fileRoot is the struct used to decode the top-level blocks of a build
// description file.
type fileRoot struct {
	Projects []*projectBlock `hcl:"project,block"`
}

type projectBlock struct {
	Name      string          `hcl:"name,label"`
	Mode      string          `hcl:"mode,optional"`
	Groups    []*groupBlock   `hcl:"group,block"`
	Toolboxes []*toolboxBlock `hcl:"toolbox,block"`
}

type groupBlock struct {
	Name         string         `hcl:"name,label"`
	AutoDiscover bool           `hcl:"auto_discover,optional"`
	Defines      hcl.Expression `hcl:"defines,optional"`
}

type toolboxBlock struct {
	Name    string   `hcl:"name,label"`
	Modules []string `hcl:"modules"`
	Entry   string   `hcl:"entry,optional"`
}

// Load orchestrates the HCL loading process: parse, decode, translate into
// the config model, then run the model's structural validation.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	src, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading build description %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if len(root.Projects) != 1 {
		return nil, &config.ConfigurationError{
			Subject: path,
			Reason:  fmt.Sprintf("build description must contain exactly one project block, found %d", len(root.Projects)),
		}
	}

	model, err := l.translateProject(ctx, root.Projects[0])
	if err != nil {
		return nil, err
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"project", model.Project,
		"mode", model.Mode.String(),
		"groups", len(model.Groups),
		"toolboxes", len(model.Plugins),
	)
	return model, nil
}

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/solverforge/internal/config"
	"github.com/vk/solverforge/internal/ctxlog"
	"github.com/vk/solverforge/internal/moduleid"
)

// translateProject converts a decoded project block into the config model.
func (l *Loader) translateProject(ctx context.Context, block *projectBlock) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	modeStr := block.Mode
	if modeStr == "" {
		modeStr = "shared"
	}
	mode, err := config.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	model := &config.Model{
		Project: block.Name,
		Mode:    mode,
	}

	for _, g := range block.Groups {
		defines, err := l.translateDefines(g)
		if err != nil {
			return nil, err
		}
		model.Groups = append(model.Groups, &config.Group{
			Name:         g.Name,
			AutoDiscover: g.AutoDiscover,
			Defines:      defines,
		})
		logger.Debug("Translated group block.", "group", g.Name, "auto_discover", g.AutoDiscover, "defines", len(defines))
	}

	for _, tb := range block.Toolboxes {
		model.Plugins = append(model.Plugins, &config.Plugin{
			Name:    moduleid.PluginName(tb.Name),
			Modules: append([]string(nil), tb.Modules...),
			Entry:   tb.Entry,
		})
		logger.Debug("Translated toolbox block.", "toolbox", tb.Name, "modules", len(tb.Modules))
	}

	return model, nil
}

// translateDefines evaluates a group's `defines` attribute into a plain
// string map. The attribute is optional; anything present must convert to a
// map of strings.
func (l *Loader) translateDefines(g *groupBlock) (map[string]string, error) {
	if g.Defines == nil {
		return nil, nil
	}

	val, diags := g.Defines.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("group %s: evaluating defines: %w", g.Name, diags)
	}
	if val.IsNull() {
		return nil, nil
	}

	converted, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, &config.ConfigurationError{
			Subject: g.Name,
			Reason:  fmt.Sprintf("defines must be a map of strings: %v", err),
		}
	}
	if converted.IsNull() || converted.LengthInt() == 0 {
		return nil, nil
	}

	defines := make(map[string]string, converted.LengthInt())
	for name, v := range converted.AsValueMap() {
		defines[name] = v.AsString()
	}
	return defines, nil
}

package registry

import (
	"io"
	"text/template"
)

// registryTemplate renders the generated translation unit consumed by the
// host application's plugin-activation loop at startup.
var registryTemplate = template.Must(template.New("registry").Parse(
	`/* Generated by solverforge; do not edit. */

typedef void (*{{.Project}}PluginEntry)( void* context );

typedef struct {{.Project}}PluginRecord {
	const char*             name;
	{{.Project}}PluginEntry entry;
} {{.Project}}PluginRecord;

{{range .Entries}}extern void {{.Symbol}}( void* context );
{{end}}
const {{.Project}}PluginRecord {{.Project}}PluginRegistry[] = {
{{range .Entries}}	{ "{{.Plugin}}", {{.Symbol}} },
{{end}}};

const unsigned {{.Project}}PluginRegistryCount = {{len .Entries}}u;
`))

// Generate writes the registry translation unit for the given project.
// Callers are expected to skip generation entirely when no plugin was built
// in static mode; an empty registry is never written.
func (s *Static) Generate(w io.Writer, project string) error {
	return registryTemplate.Execute(w, struct {
		Project string
		Entries []Entry
	}{
		Project: project,
		Entries: s.Entries(),
	})
}

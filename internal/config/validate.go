package config

// Validate performs the structural checks that are independent of the
// on-disk module layout. Directory existence is checked later, by discovery,
// once a filesystem is in play.
func (m *Model) Validate() error {
	if m.Project == "" {
		return &ConfigurationError{Subject: "project", Reason: "project name must not be empty"}
	}

	groups := make(map[string]struct{}, len(m.Groups))
	for _, g := range m.Groups {
		if g.Name == "" {
			return &ConfigurationError{Subject: "group", Reason: "group name must not be empty"}
		}
		if _, dup := groups[g.Name]; dup {
			return &ConfigurationError{Subject: g.Name, Reason: "group declared more than once"}
		}
		groups[g.Name] = struct{}{}
	}

	// Plugin names must be unique regardless of build mode: in static mode a
	// duplicate would corrupt the generated registry, and in dynamic mode it
	// would make two plugins race for one artifact name.
	plugins := make(map[string]struct{}, len(m.Plugins))
	for _, p := range m.Plugins {
		if p.Name == "" {
			return &ConfigurationError{Subject: "toolbox", Reason: "toolbox name must not be empty"}
		}
		if _, dup := plugins[string(p.Name)]; dup {
			return &ConfigurationError{Subject: string(p.Name), Reason: "duplicate toolbox name"}
		}
		plugins[string(p.Name)] = struct{}{}

		if len(p.Modules) == 0 {
			return &ConfigurationError{Subject: string(p.Name), Reason: "toolbox declares no member modules"}
		}
	}

	return nil
}

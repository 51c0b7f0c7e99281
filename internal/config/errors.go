package config

import "fmt"

// ConfigurationError reports a fatal flaw in the build description or the
// directory layout it references: a configured group directory that does not
// exist, a duplicate module or plugin name, an unknown module in a toolbox.
// It always names the offending path or name so a failed build never leaves
// the user guessing which entry was at fault.
type ConfigurationError struct {
	// Subject is the offending path or name.
	Subject string
	// Reason describes what is wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Subject, e.Reason)
}

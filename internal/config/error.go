package config

import (
	"fmt"
	"strings"
)

// Problem is one invalid setting, keyed by its dotted TOML field.
type Problem struct {
	Field   string
	Message string
}

func (p Problem) String() string {
	return p.Field + ": " + p.Message
}

func problemf(field, format string, args ...any) Problem {
	return Problem{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigError reports everything wrong with a config file at once:
// ${VAR} references with no value and settings that failed validation.
type ConfigError struct {
	Path     string
	Missing  []string
	Problems []Problem
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config %s is invalid", e.Path)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "\n  unset variables: %s", strings.Join(e.Missing, ", "))
	}
	for _, p := range e.Problems {
		b.WriteString("\n  " + p.String())
	}
	return b.String()
}

// Field returns the first problem reported for field.
func (e *ConfigError) Field(field string) (Problem, bool) {
	for _, p := range e.Problems {
		if p.Field == field {
			return p, true
		}
	}
	return Problem{}, false
}

func (e *ConfigError) empty() bool {
	return len(e.Missing) == 0 && len(e.Problems) == 0
}

package config

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// SubstituteEnvVars replaces every ${NAME} placeholder in text with the
// value of the NAME environment variable. Placeholders whose variable is
// unset are left intact so that missing secrets surface in the parsed
// configuration instead of silently becoming empty strings.
func SubstituteEnvVars(text string) string {
	return envVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

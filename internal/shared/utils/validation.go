package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits
const (
	MaxInputSize  = 64 * 1024 // single input write
	MaxIDLength   = 128
	MaxPathLength = 4096
	MaxArgCount   = 64
	MaxEnvCount   = 128
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// EnvKeyPattern matches portable environment variable names
	EnvKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateInput bounds a single terminal input write. Control bytes are
// allowed; they are how keys like Ctrl-C reach the shell.
func ValidateInput(input string) error {
	if input == "" {
		return fmt.Errorf("input is required")
	}
	if len(input) > MaxInputSize {
		return fmt.Errorf("input size %d bytes exceeds maximum %d bytes", len(input), MaxInputSize)
	}
	return nil
}

// ValidatePath validates an optional absolute filesystem path
func ValidatePath(path, fieldName string) error {
	if err := ValidateString(path, fieldName, 1, MaxPathLength, false); err != nil {
		return err
	}
	if path != "" && !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be an absolute path", fieldName)
	}
	return nil
}

// ValidateArgs validates shell arguments
func ValidateArgs(args []string) error {
	if len(args) > MaxArgCount {
		return fmt.Errorf("too many arguments (max %d)", MaxArgCount)
	}
	for i, arg := range args {
		if strings.Contains(arg, "\x00") {
			return fmt.Errorf("argument %d contains invalid characters", i)
		}
	}
	return nil
}

// ValidateEnv validates environment variable overrides
func ValidateEnv(env map[string]string) error {
	if len(env) > MaxEnvCount {
		return fmt.Errorf("too many environment variables (max %d)", MaxEnvCount)
	}
	for key, value := range env {
		if !EnvKeyPattern.MatchString(key) {
			return fmt.Errorf("invalid environment variable name: %q", key)
		}
		if strings.Contains(value, "\x00") {
			return fmt.Errorf("environment variable %s contains invalid characters", key)
		}
	}
	return nil
}

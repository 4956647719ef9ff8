package server

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Repository key constraints
const (
	maxKeyLength = 64
	minKeyLength = 1
)

// validKeyPattern allows alphanumeric characters, dots, underscores, and hyphens.
// Must start with alphanumeric character.
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateRepoKey validates a repository key.
func ValidateRepoKey(key string) error {
	if len(key) < minKeyLength {
		return fmt.Errorf("repository key is required")
	}

	if len(key) > maxKeyLength {
		return fmt.Errorf("repository key exceeds maximum length of %d characters", maxKeyLength)
	}

	if strings.Contains(key, "..") {
		return fmt.Errorf("repository key cannot contain '..'")
	}

	if !validKeyPattern.MatchString(key) {
		return fmt.Errorf("repository key must start with alphanumeric and contain only alphanumeric, dots, underscores, or hyphens")
	}

	return nil
}

// SafeJoin joins a slash separated relative path onto base and validates
// the result stays under base.
func SafeJoin(base, rel string) (string, error) {
	cleanBase := filepath.Clean(base)
	joined := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(strings.Trim(rel, "/"))))

	if joined != cleanBase && !strings.HasPrefix(joined, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%q escapes the repository: %w", rel, ErrInvalidPath)
	}

	return joined, nil
}

// parseLimit parses a limit string and returns a valid limit between 1 and max.
// Returns defaultVal if empty, parsing fails, or value is out of range.
func parseLimit(limitStr string, defaultVal, max int) int {
	if limitStr == "" {
		return defaultVal
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > max {
		return defaultVal
	}
	return limit
}

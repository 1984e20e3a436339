package fsregistry

import (
	"path/filepath"
	"strings"
)

// matchesGlobPattern checks if a path matches a glob pattern that may include "**".
// "**" matches any number of directories.
func matchesGlobPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	path = filepath.ToSlash(path)

	return matchGlobPatternParts(strings.Split(path, "/"), strings.Split(pattern, "/"), 0, 0)
}

// matchGlobPatternParts matches path parts against pattern parts recursively.
func matchGlobPatternParts(pathParts, patternParts []string, pathIndex, patternIndex int) bool {
	if patternIndex >= len(patternParts) {
		return pathIndex >= len(pathParts)
	}

	// The path is exhausted: only trailing "**" parts may remain
	if pathIndex >= len(pathParts) {
		for i := patternIndex; i < len(patternParts); i++ {
			if patternParts[i] != "**" {
				return false
			}
		}
		return true
	}

	patternPart := patternParts[patternIndex]
	if patternPart == "**" {
		// Zero directories, or one more
		if matchGlobPatternParts(pathParts, patternParts, pathIndex, patternIndex+1) {
			return true
		}
		return matchGlobPatternParts(pathParts, patternParts, pathIndex+1, patternIndex)
	}

	matched, err := filepath.Match(patternPart, pathParts[pathIndex])
	if err != nil || !matched {
		return false
	}
	return matchGlobPatternParts(pathParts, patternParts, pathIndex+1, patternIndex+1)
}

// validatePattern reports a malformed pattern.
func validatePattern(pattern string) error {
	for _, part := range strings.Split(filepath.ToSlash(pattern), "/") {
		if part == "**" {
			continue
		}
		if _, err := filepath.Match(part, ""); err != nil {
			return err
		}
	}
	return nil
}

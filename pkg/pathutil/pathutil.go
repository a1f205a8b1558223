// Package pathutil provides utilities for safe path handling and validation.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// cleanAbs rejects traversal patterns and returns the cleaned absolute form of path.
func cleanAbs(path string) (string, error) {
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path contains directory traversal pattern: %s", path)
	}
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return absPath, nil
}

// within reports whether absPath is absBase or lies beneath it.
func within(absPath, absBase string) bool {
	base := strings.TrimSuffix(absBase, string(filepath.Separator))
	return absPath == base || strings.HasPrefix(absPath, base+string(filepath.Separator))
}

// ValidatePath validates that a path is safe to use for file operations and,
// when allowedBaseDirs are given, that it lies within one of them.
func ValidatePath(path string, allowedBaseDirs ...string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	if len(allowedBaseDirs) == 0 {
		return absPath, nil
	}

	for _, baseDir := range allowedBaseDirs {
		absBase, err := filepath.Abs(baseDir)
		if err != nil {
			continue
		}
		if within(absPath, absBase) {
			return absPath, nil
		}
	}
	return "", fmt.Errorf("path %s is not within allowed directories", filepath.Clean(path))
}

// ValidateConfigPath validates a configuration file path. Config files are YAML.
func ValidateConfigPath(path string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("config file must have .yaml or .yml extension, got %s", ext)
	}
	return absPath, nil
}

// ValidateInputFile validates a dataset file: it must be a safe path to an
// existing regular file, and when extensions are given its extension must be one of them.
func ValidateInputFile(path string, extensions ...string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}

	if len(extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(absPath))
		ok := false
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				ok = true
				break
			}
		}
		if !ok {
			return "", fmt.Errorf("input file %s must have one of the extensions %s", path, strings.Join(extensions, ", "))
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("checking input file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("input file %s is not a regular file", path)
	}
	return absPath, nil
}

// ValidateOutputPath validates an output file path for reports.
// The parent directory must already exist.
func ValidateOutputPath(path string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(absPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("parent directory does not exist: %s", dir)
	}
	return absPath, nil
}

// ValidateDataPath validates a path within the data directory.
// If dataDir is empty, it just validates the path is safe.
func ValidateDataPath(path string, dataDir string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	if dataDir == "" {
		return absPath, nil
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("getting absolute data directory: %w", err)
	}
	if !within(absPath, absDataDir) {
		return "", fmt.Errorf("path %s is not within data directory %s", filepath.Clean(path), dataDir)
	}
	return absPath, nil
}

// JoinAndValidate safely joins path components and validates the result stays under baseDir.
func JoinAndValidate(baseDir string, elems ...string) (string, error) {
	for _, elem := range elems {
		if strings.Contains(elem, "..") {
			return "", fmt.Errorf("path element contains directory traversal: %s", elem)
		}
	}

	joined := filepath.Join(append([]string{baseDir}, elems...)...)
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("getting absolute base directory: %w", err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("getting absolute joined path: %w", err)
	}

	if !within(absJoined, absBase) {
		return "", fmt.Errorf("joined path %s is not within base directory %s", joined, baseDir)
	}
	return absJoined, nil
}

// IsWithinDirectory checks if a path is within a specific directory.
func IsWithinDirectory(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	return within(absPath, absDir), nil
}

// Package keyfile writes generated keys into configuration files.
package keyfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is a supported configuration file format.
type Type string

const (
	TypeEnv  Type = "env"
	TypeJSON Type = "json"
	TypeYAML Type = "yaml"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// ParseType accepts env, json, yaml and yml in any case.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "env":
		return TypeEnv, nil
	case "json":
		return TypeJSON, nil
	case "yaml", "yml":
		return TypeYAML, nil
	}
	return "", fmt.Errorf("%w: %q (supported: env, json, yaml, yml)", ErrUnsupportedType, s)
}

// DetectType guesses the format from the file name.
func DetectType(path string) (Type, error) {
	base := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(base) {
	case ".env":
		return TypeEnv, nil
	case ".json":
		return TypeJSON, nil
	case ".yaml", ".yml":
		return TypeYAML, nil
	}
	if base == "env" || strings.HasPrefix(base, ".env.") || strings.Contains(base, ".env.") {
		return TypeEnv, nil
	}
	return "", fmt.Errorf("%w: cannot detect type of %s", ErrUnsupportedType, path)
}

// Set writes key=value into the file at path, creating it if needed and
// replacing an existing entry.
func Set(path string, t Type, key, value string) error {
	switch t {
	case TypeEnv:
		return setEnv(path, key, value)
	case TypeJSON:
		return setJSON(path, key, value)
	case TypeYAML:
		return setYAML(path, key, value)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedType, t)
}

func readExisting(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

func setEnv(path, key, value string) error {
	content, err := readExisting(path)
	if err != nil {
		return err
	}

	var lines []string
	if len(content) > 0 {
		lines = strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	}
	keyPattern := regexp.MustCompile(`^\s*(export\s+)?` + regexp.QuoteMeta(key) + `=`)
	found := false
	for i, line := range lines {
		if keyPattern.MatchString(line) {
			lines[i] = fmt.Sprintf("%s=%s", key, value)
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

func setJSON(path, key, value string) error {
	content, err := readExisting(path)
	if err != nil {
		return err
	}

	data := make(map[string]any)
	if len(strings.TrimSpace(string(content))) > 0 {
		if err := json.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	}
	data[key] = value

	updated, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return os.WriteFile(path, append(updated, '\n'), 0o600)
}

func setYAML(path, key, value string) error {
	content, err := readExisting(path)
	if err != nil {
		return err
	}

	data := make(map[string]any)
	if len(content) > 0 {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		if data == nil {
			data = make(map[string]any)
		}
	}
	data[key] = value

	updated, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return os.WriteFile(path, updated, 0o600)
}

// Backup copies path to path+".bak". A missing source is not an error.
// It returns the backup path, or "" when nothing was copied.
func Backup(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}

	backupPath := path + ".bak"
	if _, err := os.Stat(backupPath); err == nil {
		if err := os.Remove(backupPath); err != nil {
			return "", fmt.Errorf("failed to remove old backup: %w", err)
		}
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return "", fmt.Errorf("failed to copy file contents: %w", err)
	}
	return backupPath, nil
}

// Package configutil reads JSON5 configuration files. A file named
// <name>.local.<ext> next to the requested file overrides it, so
// checked-in defaults and machine-local secrets can live side by side.
package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func localVariant(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s.local%s", prefix, ext))
}

func readInto(path string, out any) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(contents, out)
}

// ReadConfig reads <name> and merges <name>.local.<ext> on top of it.
// os.ErrNotExist is returned when neither file exists so callers can
// fall back to defaults.
func ReadConfig[T any](name string) (T, error) {
	var out T

	found, err := readInto(name, &out)
	if err != nil {
		return out, err
	}

	var override T
	foundLocal, err := readInto(localVariant(name), &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localVariant(name))
	}

	if !found && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks up from the working directory to the
// filesystem root looking for a config file matching name.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return zero, os.ErrNotExist
		}
		current = parent
	}
}

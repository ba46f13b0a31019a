package keybinds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config is the user's keybinding file. Each section maps an action to
// a comma-separated list of keys, replacing the default keys of that
// action in that context. Comments and trailing commas are allowed.
//
//	{
//	  // send with ctrl+s instead of enter
//	  "global": {"send": "ctrl+s"},
//	  "history": {"toggle_star": "f,space"},
//	}
type Config struct {
	Version     string            `json:"version,omitempty"`
	Global      map[string]string `json:"global,omitempty"`
	Editor      map[string]string `json:"editor,omitempty"`
	Response    map[string]string `json:"response,omitempty"`
	History     map[string]string `json:"history,omitempty"`
	Collections map[string]string `json:"collections,omitempty"`
}

func (c *Config) sections() map[Context]map[string]string {
	return map[Context]map[string]string{
		ContextGlobal:      c.Global,
		ContextEditor:      c.Editor,
		ContextResponse:    c.Response,
		ContextHistory:     c.History,
		ContextCollections: c.Collections,
	}
}

// LoadConfig loads keybinding configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}

	return &config, nil
}

// ApplyConfig applies user configuration to a registry.
// User bindings override default bindings; unknown actions are rejected.
func ApplyConfig(registry *Registry, config *Config) error {
	for _, context := range Contexts {
		for actionName, keyList := range config.sections()[context] {
			action := Action(actionName)
			if !IsKnownAction(action) {
				return fmt.Errorf("unknown action %q in %s", actionName, context)
			}

			keys := splitKeys(keyList)
			if len(keys) == 0 {
				return fmt.Errorf("no keys for %q in %s", actionName, context)
			}
			registry.Unbind(context, action)
			registry.RegisterMultiple(context, keys, action)
		}
	}
	return nil
}

func splitKeys(list string) []string {
	var keys []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// LoadOrDefault loads user config if it exists, otherwise returns default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()
	if configPath == "" {
		return registry, nil
	}

	config, err := LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
	}

	if err := ApplyConfig(registry, config); err != nil {
		return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
	}
	return registry, nil
}

package keymap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/keyroute/internal/input/key"
)

// keymapConfig is the JSON structure for keymap files.
type keymapConfig struct {
	Leader   *leaderConfig              `json:"leader,omitempty"`
	Bindings []bindingConfig            `json:"bindings"`
	Tables   map[string][]bindingConfig `json:"tables,omitempty"`
}

type leaderConfig struct {
	Key        string `json:"key"`
	Mods       string `json:"mods,omitempty"`
	TimeoutMS  int64  `json:"timeout_ms,omitempty"`
}

type bindingConfig struct {
	Key    string         `json:"key"`
	Mods   string         `json:"mods,omitempty"`
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// defaultLeaderTimeout applies when a leader is configured without an
// explicit timeout.
const defaultLeaderTimeout = 1000 * time.Millisecond

// LoadFile loads a keymap configuration from a JSON file into a new
// registry.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	return LoadReader(f)
}

// LoadReader loads a keymap configuration from a reader.
func LoadReader(r io.Reader) (*Registry, error) {
	var config keymapConfig
	if err := json.NewDecoder(r).Decode(&config); err != nil {
		return nil, fmt.Errorf("decoding keymap: %w", err)
	}

	reg := NewRegistry()

	if config.Leader != nil {
		code, err := key.ParseCode(config.Leader.Key)
		if err != nil {
			return nil, fmt.Errorf("leader: %w", err)
		}
		timeout := defaultLeaderTimeout
		if config.Leader.TimeoutMS > 0 {
			timeout = time.Duration(config.Leader.TimeoutMS) * time.Millisecond
		}
		reg.SetLeader(code, key.ParseModifiers(config.Leader.Mods), timeout)
	}

	if err := bindAll(reg, DefaultTable, config.Bindings); err != nil {
		return nil, err
	}
	for name, bindings := range config.Tables {
		if err := bindAll(reg, name, bindings); err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
	}

	return reg, nil
}

func bindAll(reg *Registry, table string, bindings []bindingConfig) error {
	for _, bc := range bindings {
		if bc.Action == "" {
			return fmt.Errorf("binding %q: empty action", bc.Key)
		}
		code, err := key.ParseCode(bc.Key)
		if err != nil {
			return fmt.Errorf("binding: %w", err)
		}
		reg.Bind(table, code, key.ParseModifiers(bc.Mods), Action{
			Name: bc.Action,
			Args: bc.Args,
		})
	}
	return nil
}

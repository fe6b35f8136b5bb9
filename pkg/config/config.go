// Package config manages FlowSTT's persistent user preferences, stored as
// JSON at os.UserConfigDir()/flowstt/config.json, plus environment overrides
// loaded from a .env file.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/keathmilligan/flowstt/pkg/logging"
)

// ErrConfigInvalid is spec §7's ConfigInvalid: the on-disk config file
// exists but failed to parse. Load recovers by applying defaults; this
// error is only ever passed to the logger, never returned, since a bad
// config file must not fail a launch.
var ErrConfigInvalid = errors.New("config: malformed config file, defaults applied")

// HotkeyCombination mirrors segmenter.HotkeyCombination in a form that
// round-trips through JSON as `{"keys": [...]}`, matching spec §6's
// `hotkeys: [{keys:[string]}]` wire shape, without this package depending
// on segmenter.
type HotkeyCombination struct {
	Keys []string `json:"keys"`
}

// Config holds all persistent user preferences. Field names and JSON tags
// for ThemeMode/TranscriptionMode/Hotkeys/PrimaryDeviceID/ReferenceDeviceID
// match spec §6's config-file contract exactly, so a config.json written by
// another spec-conformant client round-trips losslessly; ModelPath/
// HistoryDir/RetentionEntries are this build's own additional persisted
// settings (spec §6: "unknown fields are ignored").
type Config struct {
	ThemeMode         string              `json:"theme_mode"`         // "auto" | "light" | "dark"
	TranscriptionMode string              `json:"transcription_mode"` // "automatic" | "push_to_talk"
	Hotkeys           []HotkeyCombination `json:"hotkeys"`
	PrimaryDeviceID   string              `json:"primary_id,omitempty"`
	ReferenceDeviceID string              `json:"reference_id,omitempty"`
	ModelPath         string              `json:"model_path"`
	HistoryDir        string              `json:"history_dir"`
	RetentionEntries  int                 `json:"retention_entries"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		ThemeMode:         "auto",
		TranscriptionMode: "automatic",
		Hotkeys:           []HotkeyCombination{{Keys: []string{"ctrl", "space"}}},
		ModelPath:         defaultModelPath(),
		HistoryDir:        defaultHistoryDir(),
		RetentionEntries:  1000,
	}
}

func defaultModelPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(dir, "flowstt", "models")
}

func defaultHistoryDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "history"
	}
	return filepath.Join(dir, "flowstt", "history")
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "flowstt", "config.json"), nil
}

// Load reads the config file, applies FLOWSTT_* environment overrides (after
// loading a .env file if one is present in the working directory), and
// returns the result. A missing config file is never an error: Load falls
// back to defaults, matching this store's "never fail a user's launch over
// a stale preferences file" posture. A present but malformed config file is
// spec §7's ConfigInvalid: defaults are applied and logger.Warn is called
// (logger may be nil, in which case the warning is discarded).
func Load(logger logging.Logger) Config {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	_ = godotenv.Load() // best-effort; absence of .env is normal

	cfg := Default()
	if path, err := Path(); err == nil {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				logger.Warn("%v: %v", ErrConfigInvalid, err)
				cfg = Default()
			}
		}
	}

	if v := os.Getenv("FLOWSTT_MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv("FLOWSTT_HISTORY_DIR"); v != "" {
		cfg.HistoryDir = v
	}
	return cfg
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

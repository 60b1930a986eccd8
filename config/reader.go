package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/utils"
)

// Format is the encoding of a config file.
type Format string

// Supported config file formats.
const (
	FormatJSON  Format = "json"
	FormatJSON5 Format = "json5"
	FormatTOML  Format = "toml"
)

// FormatFromPath picks a format by file extension. Anything other than .toml or .json5 is read
// as JSON.
func FormatFromPath(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".toml":
		return FormatTOML
	case ".json5":
		return FormatJSON5
	default:
		return FormatJSON
	}
}

// Read reads a config from the given file. Environment variables referenced as $VAR or ${VAR}
// are substituted before decoding.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg, err := FromReader(bytes.NewReader(buf), FormatFromPath(filePath), logger)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = filePath
	return cfg, nil
}

// FromReader reads and validates a config from the given reader.
func FromReader(r io.Reader, format Format, logger logging.Logger) (*Config, error) {
	raw := map[string]interface{}{}
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode Config from toml")
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		// keeps integers such as random_seed exact past 2^53
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode Config from json")
		}
	case FormatJSON5:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if err := json5.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode Config from json5")
		}
	default:
		return nil, errors.Errorf("unknown config format %q", format)
	}

	var cfg Config
	if err := utils.DecodeAttributes(raw, &cfg); err != nil {
		return nil, utils.NewConfigValidationError("", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debugw("config read", "format", format, "links", cfg.World.LinkNames())
	return &cfg, nil
}

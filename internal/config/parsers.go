package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
	"github.com/tidwall/jsonc"
)

// jsoncParser parses JSON with comments and trailing commas.
type jsoncParser struct{}

// JSONC returns a koanf parser for JSON with comments.
func JSONC() koanf.Parser {
	return jsoncParser{}
}

func (jsoncParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(b), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (jsoncParser) Marshal(o map[string]any) ([]byte, error) {
	return json.Marshal(o)
}

// parserFor picks a parser from the file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json", ".jsonc":
		return JSONC(), nil
	default:
		return nil, fmt.Errorf("unsupported config file format %q", ext)
	}
}

package config

import (
	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	Node          string
	In            string
	Out           string
	Errors        string
	Contract      string
	Keys          []string
	PreserveTypes bool
	LogLevel      string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"node":           "ws://127.0.0.1:8080/json_rpc",
		"out":            "./data/decoded.jsonl",
		"errors":         "./data/decode_errors.jsonl",
		"preserve-types": false,
		"log-level":      "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		Node:          v.GetString("node"),
		In:            v.GetString("in"),
		Out:           v.GetString("out"),
		Errors:        v.GetString("errors"),
		Contract:      v.GetString("contract"),
		Keys:          getStringSlice(v, "key"),
		PreserveTypes: v.GetBool("preserve-types"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

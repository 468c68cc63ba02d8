// Package config loads the secret code definitions and runtime settings.
//
// Configuration is read from a TOML or YAML file, chosen by extension.
// A missing file is not an error: Default is used instead. Environment
// variables prefixed with SECRETCODE_ override file values, and a Watcher
// reports edits to the file so the caller can reload.
//
// Example (TOML):
//
//	[log]
//	level = "debug"
//
//	[input]
//	source = "stdin"
//
//	[[code]]
//	name = "konami"
//	keys = "Up Up Down Down Left Right Left Right b a"
//	idle_timeout_ms = 850
//	message = "~~~POWER UPS~~~"
package config

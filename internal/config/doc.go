// Package config loads, validates, and defaults Vignette's TOML
// configuration. Load resolves the config path (explicit flag, then
// ~/.config/vignette/config.toml, then ./vignette.toml), layers the file
// over Default(), expands tilde paths, and validates the result.
package config

// Package config loads audioreport configuration.
//
// Values come from a YAML file, a .env file and AUDIOREPORT_* environment
// variables, in increasing order of precedence. Explicit overrides (CLI
// flags) win over all of them.
//
//	cfg, err := config.Load(config.WithConfigFile("config.yml"))
//
// Environment variables map underscores onto nested keys, so
// AUDIOREPORT_ASR_WHISPER_URL sets asr.whisper.url and
// AUDIOREPORT_MODELS_STRICT_CUSTOM sets models.strict_custom.
package config

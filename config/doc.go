// Package config loads the hanabi server configuration with viper.
//
// Sources are layered, each overriding the one before it: built-in defaults, the
// YAML files passed to Load (merged left to right, or ./config.yaml when none are
// given), HANABI_* environment variables, then bound cobra flags. Keys map to
// variables by upper-casing and replacing dots, so session.max_age is read from
// HANABI_SESSION_MAX_AGE. The result is checked with go-playground/validator and
// by parsing the values that need it (SameSite names, methods, table names).
//
// Without any file the server listens on :9998 with ops on :9999, keeps
// credentials in data/main.db3 and issues a SameSite=Strict, Secure, Partitioned
// tkn cookie that lives 183 seconds. Browsers on http://localhost:3000 through
// :3002 may send credentialed POST and PUT requests.
//
//	cfg, err := config.Load([]string{"hanabi.yaml"}, cmd.Flags())
//	if err != nil {
//		return err
//	}
//	authCfg, err := cfg.AuthConfig()
package config

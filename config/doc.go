// Package config loads assetgraph configuration.
//
// Values come from a YAML file, an optional .env file and ASSETGRAPH_
// environment variables, in increasing order of precedence. Viper does the
// merging; the result is unmarshalled into Config.
//
//	var cfg config.Config
//	if err := config.LoadConfig("assetgraph", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Nested keys map to variables by joining path segments with underscores:
// ASSETGRAPH_SERVER_PORT sets server.port.
package config

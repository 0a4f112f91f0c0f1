// Package config provides configuration management for the status formatter.
//
// Configuration is loaded from environment variables and validated on startup.
// Everything except AUTH_TOKEN and the credentials of the selected classifier
// backend has a default suitable for development.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config

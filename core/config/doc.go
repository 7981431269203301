// Package config provides configuration management for the sync service.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: operational HTTP server settings (port, API key)
//   - Database: MySQL connection details for the directory
//   - Storage: S3/MinIO credentials used for run-report archival
//   - Log: logging level and format
//   - Sync: Mailchimp API key, list id, group type and onboarding policy
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.ListID)
package config

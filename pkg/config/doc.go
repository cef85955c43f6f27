// Package config provides configuration management for Vesta.
//
// This package handles loading and validating configuration from YAML files
// with environment variable overrides. Every section has defaults, so an
// empty or missing file yields a working offline setup: a SQLite queue, a
// SQLite report store, local analyzers and a receipt journal.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("vesta.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("vesta.yaml")
//
// An empty path skips the file and starts from Default.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention VESTA_SECTION_FIELD.
// For example:
//
//   - VESTA_QUEUE_SQLITE_PATH overrides queue.sqlite.path
//   - VESTA_ANALYZERS_CONTENT_API_KEY overrides analyzers.content.api_key
//   - VESTA_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	queue:
//	  sqlite:
//	    path: "/var/lib/vesta/queue.db"
//
//	remote:
//	  connectivity:
//	    mode: "http"
//	    probe_url: "https://reports.example.org/health"
//
//	analyzers:
//	  manipulation:
//	    name: "sentinel"
//	    endpoint: "https://detect.example.org"
//	    api_key: "${DETECT_API_KEY}"
//
//	ledger:
//	  organizations:
//	    - id: "org-red-cross"
//	      name: "Red Cross"
//	      credibility_rating: 5
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - pipeline.weights: weights must sum to 100, got 110
//	  - anchor.endpoint: URL is required
package config

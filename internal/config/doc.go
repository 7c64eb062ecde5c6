// Package config loads the checker's configuration from a YAML file with
// SITECHECK_* environment overrides and validates it before use. It defines
// the monitored site list, SMTP settings, storage driver, probe timeout,
// logging and the read-only history API.
package config

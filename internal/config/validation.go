package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error.
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{Field: field, Value: val, Message: message})
}

// Validate checks the resolved configuration for values that would make a
// convergence pass unsafe or meaningless.
func (c Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.WaitTimeout <= 0 {
		errs.Add("waitTimeout", "must be positive", c.WaitTimeout)
	}
	if c.Retry.Attempts < 1 {
		errs.Add("retry.attempts", "must be at least 1", c.Retry.Attempts)
	}
	if c.Retry.Delay < 0 {
		errs.Add("retry.delay", "must not be negative", c.Retry.Delay)
	}

	validateArr := func(name string, a ArrConfig) {
		if a.URL == "" {
			errs.Add(name+".url", "is required")
		}
		if a.ConfigPath == "" {
			errs.Add(name+".configPath", "is required to discover the API key")
		}
		if a.APIVersion != 1 && a.APIVersion != 3 {
			errs.Add(name+".apiVersion", "must be 1 or 3", a.APIVersion)
		}
	}
	validateArr("prowlarr", c.Prowlarr)
	validateArr("sonarr", c.Sonarr)
	validateArr("radarr", c.Radarr)

	if c.QBittorrent.URL == "" {
		errs.Add("qbittorrent.url", "is required")
	}
	if c.QBittorrent.Port <= 0 || c.QBittorrent.Port > 65535 {
		errs.Add("qbittorrent.port", "must be a valid port", c.QBittorrent.Port)
	}
	if c.SABnzbd.ConfigPath == "" {
		errs.Add("sabnzbd.configPath", "is required")
	}
	if c.SABnzbd.ConfigureProvider && c.SABnzbd.Server.Name == "" {
		errs.Add("sabnzbd.server.name", "is required when configureProvider is set")
	}
	if c.Auth.Method != "forms" && c.Auth.Method != "basic" {
		errs.Add("auth.method", `must be "forms" or "basic"`, c.Auth.Method)
	}

	return errs
}

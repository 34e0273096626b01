package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRemoteStore(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRemoteStore() error {
	if !c.RemoteStore.Enabled() {
		return nil
	}
	parsed, err := url.Parse(c.RemoteStore.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("remote_store.base_url %q is not a valid URL", c.RemoteStore.BaseURL)
	}
	if c.RemoteStore.APIKey == "" {
		return errors.New("remote_store.api_key must be set when remote_store.base_url is configured")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.SyncInterval <= 0 {
		return errors.New("workflow.sync_interval must be positive")
	}
	if c.Workflow.DebounceMillis <= 0 {
		return errors.New("workflow.debounce_millis must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

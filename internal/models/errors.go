package models

import "fmt"

// ConfigurationError reports that a required capability (OCR engine,
// rasterizer, named-entity model) is unavailable. It is fatal for a run and is
// detected before any document is processed.
type ConfigurationError struct {
	Capability string
	Err        error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is unavailable: %v", e.Capability, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

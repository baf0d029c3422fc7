package oee

import "fmt"

// ValidationError rejects a single malformed raw event. The batch it arrived
// in continues for the other records.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

// ConfigurationError marks missing or invalid equipment configuration.
// Fatal for that equipment's calculation only, never for the whole batch.
type ConfigurationError struct {
	EquipmentID string
	Reason      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("equipment %s misconfigured: %s", e.EquipmentID, e.Reason)
}

// NotFoundError marks a lookup of an unknown resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

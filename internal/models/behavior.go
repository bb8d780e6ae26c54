package models

import (
	"fmt"
	"strings"
	"time"
)

// DataType selects the recording method for a target behavior.
type DataType string

const (
	DataTypeFrequency    DataType = "frequency"
	DataTypeDuration     DataType = "duration"
	DataTypeInterval     DataType = "interval"
	DataTypeEvent        DataType = "event"
	DataTypeDeceleration DataType = "deceleration"
)

// Valid reports whether dt is a recognized data type.
func (dt DataType) Valid() bool {
	switch dt {
	case DataTypeFrequency, DataTypeDuration, DataTypeInterval, DataTypeEvent, DataTypeDeceleration:
		return true
	}
	return false
}

// BehaviorCategory classifies a target behavior by treatment intent.
type BehaviorCategory string

const (
	CategoryAcquisition  BehaviorCategory = "acquisition"
	CategoryDeceleration BehaviorCategory = "deceleration"
)

// Valid reports whether c is a recognized category.
func (c BehaviorCategory) Valid() bool {
	return c == CategoryAcquisition || c == CategoryDeceleration
}

// TargetBehavior is a behavior tracked for a client. Behaviors are owned by
// the client record and referenced from sessions by id, never duplicated.
type TargetBehavior struct {
	ID                string           `json:"id"`
	ClientID          string           `json:"client_id"`
	Name              string           `json:"name"`
	Definition        string           `json:"definition"`
	DataType          DataType         `json:"data_type"`
	Category          BehaviorCategory `json:"category"`
	IntervalLengthSec int              `json:"interval_length_sec,omitempty"`
	IsActive          bool             `json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Validate checks the fields required before a behavior can be persisted.
func (b *TargetBehavior) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("behavior name cannot be empty")
	}
	if !b.DataType.Valid() {
		return fmt.Errorf("invalid data type %q", b.DataType)
	}
	if !b.Category.Valid() {
		return fmt.Errorf("invalid category %q", b.Category)
	}
	if b.DataType == DataTypeInterval && b.IntervalLengthSec <= 0 {
		return fmt.Errorf("interval length must be positive, got %d", b.IntervalLengthSec)
	}
	return nil
}

// Client is the root entity: it owns target behaviors and is back-referenced
// by sessions and treatment goals via ClientID.
type Client struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	DOB       string           `json:"dob,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Behaviors []TargetBehavior `json:"behaviors"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Validate checks the fields required before a client can be persisted.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("client name cannot be empty")
	}
	return nil
}

// Behavior returns the client's behavior with the given id, or nil.
func (c *Client) Behavior(behaviorID string) *TargetBehavior {
	for i := range c.Behaviors {
		if c.Behaviors[i].ID == behaviorID {
			return &c.Behaviors[i]
		}
	}
	return nil
}

// ActiveBehaviors returns the subset of behaviors currently being tracked.
func (c *Client) ActiveBehaviors() []TargetBehavior {
	var active []TargetBehavior
	for _, b := range c.Behaviors {
		if b.IsActive {
			active = append(active, b)
		}
	}
	return active
}

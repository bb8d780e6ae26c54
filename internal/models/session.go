package models

import (
	"fmt"
	"strings"
	"time"
)

// Antecedent is the enum-constrained "what happened before" of an ABC record.
type Antecedent string

const (
	AntecedentDemandPlaced     Antecedent = "demand_placed"
	AntecedentDeniedAccess     Antecedent = "denied_access"
	AntecedentTransition       Antecedent = "transition"
	AntecedentAttentionRemoved Antecedent = "attention_removed"
	AntecedentAlone            Antecedent = "alone"
	AntecedentOther            Antecedent = "other"
)

// Consequence is the enum-constrained "what happened after" of an ABC record.
type Consequence string

const (
	ConsequenceAttentionGiven Consequence = "attention_given"
	ConsequenceDemandRemoved  Consequence = "demand_removed"
	ConsequenceAccessGranted  Consequence = "access_granted"
	ConsequenceRedirected     Consequence = "redirected"
	ConsequenceIgnored        Consequence = "ignored"
	ConsequenceOther          Consequence = "other"
)

// ABCRecord is a single antecedent-behavior-consequence observation.
// Records are immutable once created and appended in observation order.
type ABCRecord struct {
	ID              string      `json:"id"`
	Timestamp       time.Time   `json:"timestamp"`
	Antecedent      Antecedent  `json:"antecedent"`
	AntecedentNote  string      `json:"antecedent_note,omitempty"`
	Consequence     Consequence `json:"consequence"`
	ConsequenceNote string      `json:"consequence_note,omitempty"`
}

// Validate rejects records missing either required field. Notes are optional.
func (r *ABCRecord) Validate() error {
	if strings.TrimSpace(string(r.Antecedent)) == "" {
		return fmt.Errorf("antecedent is required")
	}
	if strings.TrimSpace(string(r.Consequence)) == "" {
		return fmt.Errorf("consequence is required")
	}
	return nil
}

// BehaviorData is the persisted projection of one behavior's live tracking
// state. Which fields are meaningful is keyed by DataType: frequency carries
// Count; duration carries TotalDurationMs; interval carries Intervals and
// IntervalLengthSec; event carries Trials plus the derived totals;
// deceleration carries Count, TotalDurationMs and ABCRecords together.
type BehaviorData struct {
	BehaviorID   string   `json:"behavior_id"`
	BehaviorName string   `json:"behavior_name"`
	DataType     DataType `json:"data_type"`

	Count           int    `json:"count,omitempty"`
	TotalDurationMs int64  `json:"total_duration_ms,omitempty"`
	Intervals       []bool `json:"intervals,omitempty"`
	IntervalLenSec  int    `json:"interval_length_sec,omitempty"`
	Trials          []bool `json:"trials,omitempty"`

	// Derived at save time from Trials.
	TotalTrials   int `json:"total_trials,omitempty"`
	CorrectTrials int `json:"correct_trials,omitempty"`

	ABCRecords []ABCRecord `json:"abc_records,omitempty"`
}

// SessionNotes carries the optional parent/session-note metadata captured at
// the end of a session.
type SessionNotes struct {
	Focus         string `json:"focus,omitempty"`
	Location      string `json:"location,omitempty"`
	Units         string `json:"units,omitempty"`
	ServiceType   string `json:"service_type,omitempty"`
	Participation string `json:"participation,omitempty"`
}

// Session is one observation session for a client. It is created with a
// generated id and immutable start time, repeatedly overwritten by autosave
// snapshots, and sealed by the end-of-session save which sets EndTime and
// DurationMs. A finalized session is never mutated, only deleted whole.
type Session struct {
	ID         string         `json:"id"`
	ClientID   string         `json:"client_id"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Behaviors  []BehaviorData `json:"behaviors"`
	Notes      string         `json:"notes,omitempty"`
	Meta       SessionNotes   `json:"meta"`
}

// Finalized reports whether the session has been sealed by an end-of-session save.
func (s *Session) Finalized() bool {
	return s.EndTime != nil
}

package models

import (
	"fmt"
	"strings"
)

// Kind classifies the outcome of a single tracking fetch.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindNoData         Kind = "no_data"
	KindTransientError Kind = "transient_error"
	KindHardError      Kind = "hard_error"
)

const (
	UnknownStatus      = "Unknown Status"
	NoRecentUpdate     = "No recent update."
	UnknownLocation    = "Unknown Location"
	UnknownDate        = "Unknown Date"
	UnknownTime        = "Unknown Time"
	NoTrackingDetails  = "⚠️ No tracking details available at the moment."
	CouldNotRetrieve   = "⚠️ Could not retrieve tracking information at this time."
	trackPackageFormat = "🔗 [Track Package](%s)"
)

// LastEvent is the most recent scan reported by the carrier.
type LastEvent struct {
	Description string
	Location    string
	Date        string
	Time        string
}

// StatusRecord is the normalized result of one fetch. Summary holds the rendered
// message; two records describe the same status iff their summaries are equal.
type StatusRecord struct {
	Kind         Kind
	Summary      string
	PackageState string
	LastEvent    *LastEvent
	TrackingLink string
}

// NewSuccess renders a structured status. An event is only kept alongside a package state.
func NewSuccess(carrier, packageState string, event *LastEvent, link string) StatusRecord {
	if packageState == "" {
		packageState = UnknownStatus
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s Tracking Update:* %s\n", carrier, packageState)
	if event != nil {
		e := event.withPlaceholders()
		event = &e
		fmt.Fprintf(&b, "📅 *Latest Update:* %s\n", e.Description)
		fmt.Fprintf(&b, "📍 *Location:* %s\n", e.Location)
		fmt.Fprintf(&b, "🕒 *Date & Time:* %s %s\n", e.Date, e.Time)
	}
	fmt.Fprintf(&b, trackPackageFormat, link)

	return StatusRecord{
		Kind:         KindSuccess,
		Summary:      b.String(),
		PackageState: packageState,
		LastEvent:    event,
		TrackingLink: link,
	}
}

// NewScraped renders a status line lifted verbatim from a tracking page.
func NewScraped(carrier, text, link string) StatusRecord {
	return StatusRecord{
		Kind:         KindSuccess,
		Summary:      fmt.Sprintf("📦 *%s Tracking Update:* %s\n"+trackPackageFormat, carrier, text, link),
		TrackingLink: link,
	}
}

func NewNoData() StatusRecord {
	return StatusRecord{Kind: KindNoData, Summary: NoTrackingDetails}
}

// NewAbsent is a fetch that found nothing worth reporting.
func NewAbsent() StatusRecord {
	return StatusRecord{Kind: KindNoData}
}

func NewTransientError(message string) StatusRecord {
	return StatusRecord{Kind: KindTransientError, Summary: message}
}

func NewHardError(message string) StatusRecord {
	return StatusRecord{Kind: KindHardError, Summary: message}
}

func (r StatusRecord) Absent() bool {
	return r.Summary == ""
}

// Text is the message shown to a person asking for the current status.
func (r StatusRecord) Text() string {
	if r.Absent() {
		return CouldNotRetrieve
	}
	return r.Summary
}

func (e LastEvent) withPlaceholders() LastEvent {
	if e.Description == "" {
		e.Description = NoRecentUpdate
	}
	if e.Location == "" {
		e.Location = UnknownLocation
	}
	if e.Date == "" {
		e.Date = UnknownDate
	}
	if e.Time == "" {
		e.Time = UnknownTime
	}
	return e
}

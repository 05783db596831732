// Package domain holds the lead board's core types and pure functions.
// Nothing in this package performs I/O.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LeadStatus is the stage of a lead in the sales funnel. The set is closed;
// anything else coming from upstream is coerced to StatusNew.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusResponded LeadStatus = "responded"
	StatusQualified LeadStatus = "qualified"
	StatusConverted LeadStatus = "converted"
	StatusLost      LeadStatus = "lost"
	StatusInvalid   LeadStatus = "invalid"
)

// AllStatuses lists every valid status in funnel order, terminal states last.
// The board renders one column per entry.
func AllStatuses() []LeadStatus {
	return []LeadStatus{
		StatusNew,
		StatusContacted,
		StatusResponded,
		StatusQualified,
		StatusConverted,
		StatusLost,
		StatusInvalid,
	}
}

// ParseStatus coerces an upstream status value to a member of the closed set.
// Unknown or empty values become StatusNew so a bad record can never break
// board placement.
func ParseStatus(raw string) LeadStatus {
	status := LeadStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusNew, StatusContacted, StatusResponded, StatusQualified,
		StatusConverted, StatusLost, StatusInvalid:
		return status
	default:
		return StatusNew
	}
}

// IsValidStatus reports whether raw is exactly a member of the closed status
// set (case-insensitive). Used to reject bad transition targets before any
// remote call.
func IsValidStatus(raw string) bool {
	status := LeadStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusNew, StatusContacted, StatusResponded, StatusQualified,
		StatusConverted, StatusLost, StatusInvalid:
		return true
	default:
		return false
	}
}

// SourcePlatform identifies where a lead was captured.
type SourcePlatform string

const (
	PlatformFacebook  SourcePlatform = "facebook"
	PlatformInstagram SourcePlatform = "instagram"
	PlatformWalkIns   SourcePlatform = "walk_ins"
	PlatformReferral  SourcePlatform = "referral"
	PlatformEmail     SourcePlatform = "email"
	PlatformWebsite   SourcePlatform = "website"
	PlatformPhoneCall SourcePlatform = "phone_call"
	PlatformUnknown   SourcePlatform = "unknown"
)

// ParsePlatform coerces an upstream platform value, defaulting to PlatformUnknown.
func ParsePlatform(raw string) SourcePlatform {
	platform := SourcePlatform(strings.ToLower(strings.TrimSpace(raw)))
	switch platform {
	case PlatformFacebook, PlatformInstagram, PlatformWalkIns, PlatformReferral,
		PlatformEmail, PlatformWebsite, PlatformPhoneCall:
		return platform
	default:
		return PlatformUnknown
	}
}

// FormField is one captured form answer. FormData keeps the order the form
// presented its fields in, which a plain map would lose.
type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FormData is an ordered list of captured form fields.
type FormData []FormField

// UnmarshalJSON accepts either the canonical array-of-fields shape or a plain
// JSON object (older upstream payloads), preserving object key order.
func (f *FormData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = nil
		return nil
	}

	if trimmed[0] == '[' {
		var fields []FormField
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		*f = fields
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("formData: expected object or array")
	}

	var fields FormData
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return err
		}
		fields = append(fields, FormField{Name: key, Value: stringify(value)})
	}

	*f = fields
	return nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

// Lead is one captured prospect. ID is opaque and immutable; contact fields
// are optional.
type Lead struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Email          string         `json:"email,omitempty"`
	PhoneNumber    string         `json:"phoneNumber,omitempty"`
	SourcePlatform SourcePlatform `json:"sourcePlatform"`
	Status         LeadStatus     `json:"status"`
	FormData       FormData       `json:"formData,omitempty"`
	FollowUpAt     *time.Time     `json:"followUpAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// WithStatus returns a copy of the lead with the status replaced and
// UpdatedAt advanced.
func (l Lead) WithStatus(status LeadStatus, now time.Time) Lead {
	l.Status = status
	l.UpdatedAt = now
	return l
}

package models

import (
	"fmt"
	"strings"

	"github.com/jredh-dev/lostfound/pkg/apperrors"
)

// UnknownEnumValueError reports a non-blank value outside a closed vocabulary.
type UnknownEnumValueError struct {
	Field string
	Raw   string
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Field, e.Raw)
}

// Is makes the error match apperrors.ErrValidation.
func (e *UnknownEnumValueError) Is(target error) bool {
	return apperrors.ErrValidation.Is(target)
}

// AppError maps the error into the shared taxonomy.
func (e *UnknownEnumValueError) AppError() *apperrors.Error {
	return apperrors.ErrValidation
}

// Status is the lifecycle state of a reported item.
type Status string

const (
	StatusLost    Status = "lost"
	StatusFound   Status = "found"
	StatusClaimed Status = "claimed"
)

// Statuses lists every item status in declaration order.
var Statuses = []Status{StatusLost, StatusFound, StatusClaimed}

// ParseStatus parses the external or storage form of a status.
// Blank input returns the zero Status and no error.
func ParseStatus(raw string) (Status, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", nil
	}
	for _, s := range Statuses {
		if strings.EqualFold(string(s), v) {
			return s, nil
		}
	}
	return "", &UnknownEnumValueError{Field: "status", Raw: raw}
}

func (s Status) String() string { return string(s) }

// StorageValue is the form persisted in the items collection.
func (s Status) StorageValue() string { return strings.ToUpper(string(s)) }

// IsZero reports whether the status is absent.
func (s Status) IsZero() bool { return s == "" }

func (s Status) MarshalText() ([]byte, error) { return []byte(s), nil }

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Zone is a campus area used to narrow searches.
type Zone string

const (
	ZoneMain    Zone = "Main"
	ZoneLibrary Zone = "Library"
	ZoneGym     Zone = "Gym"
	ZoneLabs    Zone = "Labs"
	ZoneCanteen Zone = "Canteen"
	ZoneParking Zone = "Parking"
	ZoneGate1   Zone = "Gate1"
	ZoneGate2   Zone = "Gate2"
	ZoneOther   Zone = "Other"
)

// Zones lists every campus zone in declaration order.
var Zones = []Zone{
	ZoneMain, ZoneLibrary, ZoneGym, ZoneLabs, ZoneCanteen,
	ZoneParking, ZoneGate1, ZoneGate2, ZoneOther,
}

// ParseZone parses a campus zone. Blank input returns the zero Zone and no error.
func ParseZone(raw string) (Zone, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", nil
	}
	for _, z := range Zones {
		if strings.EqualFold(string(z), v) {
			return z, nil
		}
	}
	return "", &UnknownEnumValueError{Field: "campus zone", Raw: raw}
}

func (z Zone) String() string { return string(z) }

func (z Zone) IsZero() bool { return z == "" }

func (z Zone) MarshalText() ([]byte, error) { return []byte(z), nil }

func (z *Zone) UnmarshalText(text []byte) error {
	v, err := ParseZone(string(text))
	if err != nil {
		return err
	}
	*z = v
	return nil
}

// ClaimStatus is the review state of an ownership claim.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// ClaimStatuses lists every claim status in declaration order.
var ClaimStatuses = []ClaimStatus{ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected}

// ParseClaimStatus parses a claim status. Blank input returns the zero value.
func ParseClaimStatus(raw string) (ClaimStatus, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", nil
	}
	for _, s := range ClaimStatuses {
		if strings.EqualFold(string(s), v) {
			return s, nil
		}
	}
	return "", &UnknownEnumValueError{Field: "claim status", Raw: raw}
}

func (s ClaimStatus) String() string { return string(s) }

// StorageValue is the form persisted in the claims collection.
func (s ClaimStatus) StorageValue() string { return strings.ToUpper(string(s)) }

func (s ClaimStatus) MarshalText() ([]byte, error) { return []byte(s), nil }

func (s *ClaimStatus) UnmarshalText(text []byte) error {
	v, err := ParseClaimStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

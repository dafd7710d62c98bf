package database

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/jredh-dev/lostfound/pkg/apperrors"
)

// DecodeError reports a stored document that cannot be mapped to a model.
type DecodeError struct {
	DocID  string
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("document %s: field %s: %s", e.DocID, e.Field, e.Reason)
}

// AppError classifies undecodable documents as store failures.
func (e *DecodeError) AppError() *apperrors.Error {
	return apperrors.ErrStoreFailure
}

// Decoder reads typed values out of a document and keeps the first failure
// in Err. Reads after a failure still return zero values.
type Decoder struct {
	doc Document
	Err error
}

func NewDecoder(doc Document) *Decoder {
	return &Decoder{doc: doc}
}

// Fail records a failure on field unless one is already recorded.
func (d *Decoder) Fail(field, reason string) {
	if d.Err == nil {
		d.Err = &DecodeError{DocID: d.doc.ID, Field: field, Reason: reason}
	}
}

func (d *Decoder) Str(field string) string {
	switch v := d.doc.Fields[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		d.Fail(field, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
}

// Timestamp accepts the forms the store hands back and returns nil when the
// field is absent. Results are in UTC.
func (d *Decoder) Timestamp(field string) *time.Time {
	var t time.Time
	switch v := d.doc.Fields[field].(type) {
	case nil:
		return nil
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil
		}
		t = *v
	case *timestamppb.Timestamp:
		if v == nil {
			return nil
		}
		if err := v.CheckValid(); err != nil {
			d.Fail(field, err.Error())
			return nil
		}
		t = v.AsTime()
	default:
		d.Fail(field, fmt.Sprintf("expected timestamp, got %T", v))
		return nil
	}
	t = t.UTC()
	return &t
}

// List returns the non-blank string entries of a list field in order.
// Non-string entries are dropped.
func (d *Decoder) List(field string) []string {
	out := []string{}
	switch v := d.doc.Fields[field].(type) {
	case nil:
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	default:
		d.Fail(field, fmt.Sprintf("expected list, got %T", v))
	}
	return out
}

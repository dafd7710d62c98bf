// Package provenance checks that attachment URLs point at objects stored
// under a single item in the configured storage bucket.
//
// Four URL shapes are accepted and all reduce to an object path of the form
// items/<item-id>/.../<file-name>:
//
//	gs://<bucket>/<object-path>
//	https://firebasestorage.googleapis.com/v0/b/<bucket>/o/<escaped-object-path>
//	https://<bucket>.storage.googleapis.com/<object-path>
//	https://storage.googleapis.com/<bucket>/<object-path>
//
// All functions are pure.
package provenance

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jredh-dev/lostfound/pkg/apperrors"
)

// ObjectPrefix is the object path prefix every attachment must live under.
const ObjectPrefix = "items/"

const (
	firebaseHost = "firebasestorage.googleapis.com"
	storageHost  = "storage.googleapis.com"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Reason classifies a provenance failure.
type Reason string

const (
	ReasonEmptyURL            Reason = "attachment url is blank"
	ReasonWrongBucket         Reason = "attachment url is not in the configured bucket"
	ReasonMalformedURL        Reason = "attachment url is malformed"
	ReasonMissingPrefix       Reason = "attachment object path must start with " + ObjectPrefix
	ReasonMissingItemID       Reason = "attachment object path has no item id"
	ReasonMissingFileName     Reason = "attachment object path has no file name"
	ReasonDisallowedExtension Reason = "attachment file type is not allowed"
	ReasonItemIDConflict      Reason = "attachment urls must all belong to the same item"
	ReasonBucketNotConfigured Reason = "storage bucket is not configured"
)

// Error is returned for every rejected URL.
type Error struct {
	Reason Reason
	URL    string
}

func (e *Error) Error() string {
	if e.URL == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.URL)
}

// Is matches other provenance errors with the same reason, and the
// apperrors kind returned by AppError.
func (e *Error) Is(target error) bool {
	var pe *Error
	if errors.As(target, &pe) {
		return pe.Reason == e.Reason
	}
	return e.AppError().Is(target)
}

// AppError maps a missing bucket to a configuration error and everything
// else to a validation error.
func (e *Error) AppError() *apperrors.Error {
	if e.Reason == ReasonBucketNotConfigured {
		return apperrors.ErrConfiguration
	}
	return apperrors.ErrValidation
}

// ErrBucketNotConfigured is returned when URLs are supplied but no bucket is set.
var ErrBucketNotConfigured = &Error{Reason: ReasonBucketNotConfigured}

// Attachment is a parsed attachment URL.
type Attachment struct {
	Bucket     string
	ObjectPath string
	ItemID     string
	FileName   string
}

// Parse validates rawURL against bucket and returns the attachment it names.
func Parse(bucket, rawURL string) (Attachment, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return Attachment{}, &Error{Reason: ReasonEmptyURL, URL: rawURL}
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return Attachment{}, ErrBucketNotConfigured
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Attachment{}, &Error{Reason: ReasonMalformedURL, URL: raw}
	}

	urlBucket, object, reason := split(u)
	if reason != "" {
		return Attachment{}, &Error{Reason: reason, URL: raw}
	}
	if !strings.EqualFold(urlBucket, bucket) {
		return Attachment{}, &Error{Reason: ReasonWrongBucket, URL: raw}
	}

	a, reason := parseObjectPath(object)
	if reason != "" {
		return Attachment{}, &Error{Reason: reason, URL: raw}
	}
	a.Bucket = urlBucket
	return a, nil
}

// split returns the bucket and decoded object path of one of the accepted
// URL shapes, or the reason the URL fits none of them.
func split(u *url.URL) (string, string, Reason) {
	host := strings.ToLower(u.Hostname())
	escaped := strings.TrimPrefix(u.EscapedPath(), "/")

	switch strings.ToLower(u.Scheme) {
	case "gs":
		obj, err := url.PathUnescape(escaped)
		if err != nil {
			return "", "", ReasonMalformedURL
		}
		return u.Host, obj, ""
	case "http", "https":
	default:
		return "", "", ReasonMalformedURL
	}

	switch {
	case host == firebaseHost:
		// v0/b/<bucket>/o/<escaped-object>
		segs := strings.Split(escaped, "/")
		if len(segs) < 5 || segs[0] != "v0" || segs[1] != "b" || segs[3] != "o" {
			return "", "", ReasonMalformedURL
		}
		b, err := url.PathUnescape(segs[2])
		if err != nil {
			return "", "", ReasonMalformedURL
		}
		obj, err := url.PathUnescape(strings.Join(segs[4:], "/"))
		if err != nil {
			return "", "", ReasonMalformedURL
		}
		return b, obj, ""
	case strings.HasSuffix(host, "."+storageHost):
		obj, err := url.PathUnescape(escaped)
		if err != nil {
			return "", "", ReasonMalformedURL
		}
		return strings.TrimSuffix(host, "."+storageHost), obj, ""
	case host == storageHost:
		b, rest, ok := strings.Cut(escaped, "/")
		if !ok || b == "" {
			return "", "", ReasonMalformedURL
		}
		obj, err := url.PathUnescape(rest)
		if err != nil {
			return "", "", ReasonMalformedURL
		}
		return b, obj, ""
	default:
		return "", "", ReasonWrongBucket
	}
}

func parseObjectPath(object string) (Attachment, Reason) {
	if q := strings.IndexByte(object, '?'); q >= 0 {
		object = object[:q]
	}
	if !strings.HasPrefix(object, ObjectPrefix) {
		return Attachment{}, ReasonMissingPrefix
	}
	itemID, rest, _ := strings.Cut(strings.TrimPrefix(object, ObjectPrefix), "/")
	if strings.TrimSpace(itemID) == "" {
		return Attachment{}, ReasonMissingItemID
	}
	fileName := path.Base("/" + rest)
	if rest == "" || strings.HasSuffix(rest, "/") || fileName == "/" {
		return Attachment{}, ReasonMissingFileName
	}
	if !allowedExtensions[strings.ToLower(path.Ext(fileName))] {
		return Attachment{}, ReasonDisallowedExtension
	}
	return Attachment{ObjectPath: object, ItemID: itemID, FileName: fileName}, ""
}

// ResolveItemID returns the item id shared by every URL in urls. Blank
// entries are ignored; an empty list resolves to "".
func ResolveItemID(bucket string, urls []string) (string, error) {
	urls = nonBlank(urls)
	if len(urls) == 0 {
		return "", nil
	}
	if strings.TrimSpace(bucket) == "" {
		return "", ErrBucketNotConfigured
	}
	var itemID string
	for _, raw := range urls {
		a, err := Parse(bucket, raw)
		if err != nil {
			return "", err
		}
		if itemID == "" {
			itemID = a.ItemID
			continue
		}
		if a.ItemID != itemID {
			return "", &Error{Reason: ReasonItemIDConflict, URL: raw}
		}
	}
	return itemID, nil
}

// EnsureScoped checks that every URL belongs to itemID.
func EnsureScoped(bucket, itemID string, urls []string) error {
	urls = nonBlank(urls)
	if len(urls) == 0 {
		return nil
	}
	if strings.TrimSpace(bucket) == "" {
		return ErrBucketNotConfigured
	}
	for _, raw := range urls {
		a, err := Parse(bucket, raw)
		if err != nil {
			return err
		}
		if a.ItemID != itemID {
			return &Error{Reason: ReasonItemIDConflict, URL: raw}
		}
	}
	return nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

package model

import (
	"errors"
	"net/url"
)

// ContentType is the content type every migrated object is stored with.
const ContentType = "image/jpeg"

// keySuffix is appended to every destination key.
const keySuffix = ".jpg"

// Reference validation errors.
var (
	ErrMissingOwner = errors.New("model: owner id is empty")
	ErrMissingKind  = errors.New("model: media kind is empty")
	ErrInvalidURL   = errors.New("model: source url is not an absolute http(s) url")
)

// MediaReference identifies one remote asset belonging to one source record.
type MediaReference struct {
	OwnerID   string
	Kind      string
	SourceURL string
}

// Key returns the destination key for the reference.
func (r MediaReference) Key() string {
	return DestinationKey(r.OwnerID, r.Kind)
}

// Validate reports why the reference cannot be migrated, or nil.
func (r MediaReference) Validate() error {
	if r.OwnerID == "" {
		return ErrMissingOwner
	}
	if r.Kind == "" {
		return ErrMissingKind
	}
	if !IsAbsoluteHTTPURL(r.SourceURL) {
		return ErrInvalidURL
	}
	return nil
}

// DestinationKey derives the object name for an (owner, kind) pair.
// The source URL never participates, so re-runs always map to the same key.
func DestinationKey(ownerID, kind string) string {
	return ownerID + "_" + kind + keySuffix
}

// IsAbsoluteHTTPURL reports whether raw parses as an absolute http or https URL
// with a host.
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// FetchResult is the outcome of downloading one reference.
// Data is set when the download succeeded; otherwise Err describes why the
// asset is absent.
type FetchResult struct {
	Ref  MediaReference
	Data []byte
	Err  error
}

// OK reports whether the asset was downloaded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

package source

import (
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
)

// Default document field names.
const (
	DefaultOwnerField = "productId"
	DefaultMediaField = "media"
	DefaultURLField   = "medium"
	DefaultKindField  = "type"
)

// Fields names the document fields holding the owner id, the media list, and,
// inside each media entry, the URL and kind.
type Fields struct {
	Owner string `yaml:"owner"`
	Media string `yaml:"media"`
	URL   string `yaml:"url"`
	Kind  string `yaml:"kind"`

	// DefaultKind is used for media entries without a kind. When empty such
	// entries are skipped.
	DefaultKind string `yaml:"default_kind"`
}

// DefaultFields returns the field names used by the product catalogue.
func DefaultFields() Fields {
	return Fields{
		Owner: DefaultOwnerField,
		Media: DefaultMediaField,
		URL:   DefaultURLField,
		Kind:  DefaultKindField,
	}
}

func (f Fields) withDefaults() Fields {
	d := DefaultFields()
	if f.Owner == "" {
		f.Owner = d.Owner
	}
	if f.Media == "" {
		f.Media = d.Media
	}
	if f.URL == "" {
		f.URL = d.URL
	}
	if f.Kind == "" {
		f.Kind = d.Kind
	}
	return f
}

// ExtractRecord reduces a decoded document to a model.Record.
func ExtractRecord(doc bson.M, f Fields) model.Record {
	f = f.withDefaults()

	owner, ok := scalarString(doc[f.Owner])
	if !ok || owner == "" {
		return model.Record{}
	}

	return model.Record{
		OwnerID: owner,
		Media:   extractMedia(owner, doc[f.Media], f),
	}
}

func extractMedia(owner string, v any, f Fields) []model.MediaReference {
	var refs []model.MediaReference
	for _, item := range asList(v) {
		entry, ok := asMap(item)
		if !ok {
			continue
		}

		url, _ := entry[f.URL].(string)
		if url == "" {
			continue
		}

		kind, _ := scalarString(entry[f.Kind])
		if kind == "" {
			kind = f.DefaultKind
		}

		ref := model.MediaReference{OwnerID: owner, Kind: kind, SourceURL: url}
		if ref.Validate() != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// asList accepts the array shapes the driver may decode into.
func asList(v any) []any {
	switch t := v.(type) {
	case bson.A:
		return t
	case []any:
		return t
	default:
		return nil
	}
}

// asMap accepts the embedded document shapes the driver may decode into.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case map[string]any:
		return t, true
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	default:
		return nil, false
	}
}

// scalarString formats identifiers stored as strings, integers or ObjectIDs.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'f', 0, 64), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case primitive.ObjectID:
		return t.Hex(), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}

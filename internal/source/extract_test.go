package source

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
)

func TestExtractRecordMedia(t *testing.T) {
	t.Parallel()

	f := DefaultFields()

	tests := []struct {
		name     string
		doc      bson.M
		expected []model.MediaReference
	}{
		{
			name: "single entry",
			doc: bson.M{
				"productId": "P1",
				"media":     bson.A{bson.M{"medium": "http://x/a.jpg", "type": "main"}},
			},
			expected: []model.MediaReference{{OwnerID: "P1", Kind: "main", SourceURL: "http://x/a.jpg"}},
		},
		{
			name: "missing owner",
			doc: bson.M{
				"media": bson.A{bson.M{"medium": "http://x/a.jpg", "type": "main"}},
			},
		},
		{
			name: "empty owner",
			doc: bson.M{
				"productId": "",
				"media":     bson.A{bson.M{"medium": "http://x/a.jpg", "type": "main"}},
			},
		},
		{
			name: "entries without url or kind are skipped",
			doc: bson.M{
				"productId": "P2",
				"media": bson.A{
					bson.M{"type": "main"},
					bson.M{"medium": "http://x/b.jpg"},
					bson.M{"medium": "", "type": "thumb"},
					bson.M{"medium": "http://x/c.jpg", "type": "zoom"},
				},
			},
			expected: []model.MediaReference{{OwnerID: "P2", Kind: "zoom", SourceURL: "http://x/c.jpg"}},
		},
		{
			name: "relative and non-http urls are skipped",
			doc: bson.M{
				"productId": "P3",
				"media": bson.A{
					bson.M{"medium": "/img/a.jpg", "type": "main"},
					bson.M{"medium": "ftp://x/a.jpg", "type": "alt"},
					bson.M{"medium": "https://cdn.example.com/a.jpg", "type": "thumb"},
				},
			},
			expected: []model.MediaReference{{OwnerID: "P3", Kind: "thumb", SourceURL: "https://cdn.example.com/a.jpg"}},
		},
		{
			name: "numeric owner",
			doc: bson.M{
				"productId": int64(8001234567890),
				"media":     bson.A{bson.M{"medium": "http://x/a.jpg", "type": "main"}},
			},
			expected: []model.MediaReference{{OwnerID: "8001234567890", Kind: "main", SourceURL: "http://x/a.jpg"}},
		},
		{
			name: "integral double owner",
			doc: bson.M{
				"productId": float64(42),
				"media":     bson.A{bson.M{"medium": "http://x/a.jpg", "type": "main"}},
			},
			expected: []model.MediaReference{{OwnerID: "42", Kind: "main", SourceURL: "http://x/a.jpg"}},
		},
		{
			name: "embedded documents as bson.D",
			doc: bson.M{
				"productId": int32(7),
				"media": bson.A{bson.D{
					{Key: "medium", Value: "http://x/d.jpg"},
					{Key: "type", Value: "main"},
				}},
			},
			expected: []model.MediaReference{{OwnerID: "7", Kind: "main", SourceURL: "http://x/d.jpg"}},
		},
		{
			name: "media not a list",
			doc: bson.M{
				"productId": "P4",
				"media":     "http://x/a.jpg",
			},
		},
		{
			name: "non-document entries ignored",
			doc: bson.M{
				"productId": "P5",
				"media":     []any{"http://x/a.jpg", 3, map[string]any{"medium": "http://x/e.jpg", "type": "main"}},
			},
			expected: []model.MediaReference{{OwnerID: "P5", Kind: "main", SourceURL: "http://x/e.jpg"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractRecord(tt.doc, f).Media
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d references, got %d: %+v", len(tt.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("reference %d = %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestExtractRecordObjectIDOwner(t *testing.T) {
	t.Parallel()

	id := primitive.NewObjectID()
	rec := ExtractRecord(bson.M{"productId": id}, DefaultFields())

	if rec.OwnerID != id.Hex() {
		t.Errorf("expected owner %s, got %s", id.Hex(), rec.OwnerID)
	}
	if len(rec.Media) != 0 {
		t.Errorf("expected no media, got %d", len(rec.Media))
	}
}

func TestExtractDefaultKind(t *testing.T) {
	t.Parallel()

	f := DefaultFields()
	f.DefaultKind = "unknown"

	refs := ExtractRecord(bson.M{
		"productId": "P1",
		"media":     bson.A{bson.M{"medium": "http://x/a.jpg"}},
	}, f).Media

	if len(refs) != 1 || refs[0].Kind != "unknown" {
		t.Errorf("expected one reference with kind unknown, got %+v", refs)
	}
}

func TestExtractCustomFields(t *testing.T) {
	t.Parallel()

	f := Fields{Owner: "sku", Media: "images", URL: "src", Kind: "role"}
	refs := ExtractRecord(bson.M{
		"sku":    "S-1",
		"images": bson.A{bson.M{"src": "http://x/a.jpg", "role": "hero"}},
	}, f).Media

	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	if refs[0].Key() != "S-1_hero.jpg" {
		t.Errorf("unexpected key %s", refs[0].Key())
	}
}

func TestFieldsWithDefaults(t *testing.T) {
	t.Parallel()

	got := Fields{URL: "large"}.withDefaults()
	want := Fields{Owner: "productId", Media: "media", URL: "large", Kind: "type"}

	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}
}

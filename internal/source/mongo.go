package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
)

// DefaultConnectTimeout bounds Connect and Ping in Open.
const DefaultConnectTimeout = 10 * time.Second

// ErrUnreachable is returned by Open when the server cannot be reached.
var ErrUnreachable = errors.New("source: mongodb unreachable")

// Options configures the collection to read from.
type Options struct {
	URI        string
	Database   string
	Collection string
	Fields     Fields

	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Collection is a paged reader over one MongoDB collection.
type Collection struct {
	client *mongo.Client
	coll   *mongo.Collection
	fields Fields
}

// Open connects to MongoDB and verifies the connection with a ping.
func Open(ctx context.Context, opts Options) (*Collection, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	fields := opts.Fields.withDefaults()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrUnreachable, err)
	}

	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", ErrUnreachable, err)
	}

	return &Collection{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		fields: fields,
	}, nil
}

// Name returns "database.collection".
func (c *Collection) Name() string {
	return c.coll.Database().Name() + "." + c.coll.Name()
}

// ownerFilter selects documents that have the owner field at all.
func (c *Collection) ownerFilter() bson.M {
	return bson.M{c.fields.Owner: bson.M{"$exists": true}}
}

// Count returns the number of documents carrying an owner field.
func (c *Collection) Count(ctx context.Context) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, c.ownerFilter())
	if err != nil {
		return 0, fmt.Errorf("source: count %s: %w", c.Name(), err)
	}
	return n, nil
}

// Page reads up to limit documents after skipping skip, ordered by _id.
func (c *Collection) Page(ctx context.Context, skip, limit int64) ([]model.Record, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{c.fields.Owner: 1, c.fields.Media: 1})

	cursor, err := c.coll.Find(ctx, c.ownerFilter(), opts)
	if err != nil {
		return nil, fmt.Errorf("source: find %s: %w", c.Name(), err)
	}
	defer cursor.Close(ctx)

	var recs []model.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("source: decode %s: %w", c.Name(), err)
		}
		recs = append(recs, ExtractRecord(doc, c.fields))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("source: read %s: %w", c.Name(), err)
	}

	return recs, nil
}

// Close disconnects from the server.
func (c *Collection) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

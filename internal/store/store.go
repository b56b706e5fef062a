package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
	"gocloud.dev/gcp"
	"golang.org/x/oauth2/google"
)

// gcsScope is the OAuth scope needed to list, check and write objects.
const gcsScope = "https://www.googleapis.com/auth/devstorage.read_write"

// Errors returned by Open and CheckAccess.
var (
	ErrBucketNotFound     = errors.New("store: bucket does not exist or is not accessible")
	ErrMissingCredentials = errors.New("store: credentials are required for a GCS bucket name")
)

// Options configures how the bucket is opened.
type Options struct {
	// Bucket is a gocloud bucket URL or a plain GCS bucket name.
	Bucket string

	// CredentialsJSON is a GCS service-account key. Required when Bucket is a
	// plain name, ignored for URLs.
	CredentialsJSON string

	// Prefix is prepended to every key. Keys returned by ListKeys have it stripped.
	Prefix string
}

// Store is a destination bucket.
type Store struct {
	bucket *blob.Bucket
	name   string
}

// Open opens the destination bucket described by opts.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		bkt *blob.Bucket
		err error
	)

	if IsBucketURL(opts.Bucket) {
		bkt, err = blob.OpenBucket(ctx, opts.Bucket)
		if err != nil {
			return nil, fmt.Errorf("store: open bucket %s: %w", opts.Bucket, err)
		}
	} else {
		bkt, err = openGCS(ctx, opts.Bucket, opts.CredentialsJSON)
		if err != nil {
			return nil, err
		}
	}

	if opts.Prefix != "" {
		bkt = blob.PrefixedBucket(bkt, opts.Prefix)
	}

	return New(bkt, opts.Bucket), nil
}

// openGCS opens a GCS bucket by name using service-account credentials.
func openGCS(ctx context.Context, name, credentialsJSON string) (*blob.Bucket, error) {
	if credentialsJSON == "" {
		return nil, ErrMissingCredentials
	}

	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), gcsScope)
	if err != nil {
		return nil, fmt.Errorf("store: parse credentials: %w", err)
	}

	client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, fmt.Errorf("store: create gcs client: %w", err)
	}

	bkt, err := gcsblob.OpenBucket(ctx, client, name, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open gcs bucket %s: %w", name, err)
	}
	return bkt, nil
}

// New wraps an already opened bucket. name is used for logging only.
func New(bucket *blob.Bucket, name string) *Store {
	return &Store{bucket: bucket, name: name}
}

// IsBucketURL reports whether s looks like a gocloud bucket URL rather than a
// bare GCS bucket name.
func IsBucketURL(s string) bool {
	return strings.Contains(s, "://")
}

// Name returns the bucket setting the store was opened with.
func (s *Store) Name() string {
	return s.name
}

// CheckAccess verifies that the bucket exists and the credentials can reach it.
func (s *Store) CheckAccess(ctx context.Context) error {
	ok, err := s.bucket.IsAccessible(ctx)
	if err != nil {
		return fmt.Errorf("store: check bucket %s: %w", s.name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, s.name)
	}
	return nil
}

// Exists reports whether an object with the given key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("store: exists %s: %w", key, err)
	}
	return ok, nil
}

// Write stores data under key with the given content type.
func (s *Store) Write(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

// ListKeys returns every object key in the bucket.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string

	it := s.bucket.List(nil)
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: list %s: %w", s.name, err)
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// ErrorCode returns a short classification of a store error for logging.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return gcerrors.Code(err).String()
}

// Package store is the destination object store used by the migration.
//
// It wraps a gocloud.dev/blob bucket and exposes the three operations the
// pipeline needs: a bulk key listing for the existence index, a single-object
// existence check, and a whole-object write with a content type. Being
// storage-agnostic, the same code runs against GCS in production, Minio/S3 in
// integration tests and mem:// buckets in unit tests.
//
// # Opening
//
// A bucket setting containing "://" is treated as a gocloud URL and opened
// with blob.OpenBucket (gs://, s3://, file://, mem://). A plain name is a GCS
// bucket authenticated with the service-account JSON supplied in Options.
//
//	st, err := store.Open(ctx, store.Options{
//	    Bucket:          "product-images",
//	    CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
//	})
//	defer st.Close()
//
// # Layout
//
//	{bucket}/{prefix}{ownerId}_{kind}.jpg
package store

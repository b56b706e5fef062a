// Package main provides the entry point for the imgupload CLI.
//
// imgupload copies product images referenced from a MongoDB collection into
// a Google Cloud Storage bucket, one object per product and image kind.
// Runs are resumable: images already in the bucket are skipped.
//
// Usage:
//
//	imgupload run
//	imgupload check
//	imgupload history
//
// Settings come from environment variables (MONGO_URI, DB_NAME,
// COLLECTION_NAME, BUCKET_NAME, GCS_CREDENTIALS_JSON, ...), an optional YAML
// file and flags. See --help for all available options.
package main

// main is the entry point for imgupload.
func main() {
	Execute()
}

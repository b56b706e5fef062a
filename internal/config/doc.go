// Package config loads and validates the migration settings.
//
// Settings are layered, lowest precedence first: built-in defaults, a YAML
// file, environment variables, then command-line flags. Environment variable
// names match the ones the upload job has always used (MONGO_URI, DB_NAME,
// BUCKET_NAME and so on).
//
// # YAML Format
//
//	mongo_uri: mongodb://localhost:27017
//	database: catalog
//	collection: products
//	bucket: product-images
//	object_prefix: products/
//	page_size: 500
//	concurrency: 10
//	commit_batch_size: 50
//	request_timeout: 30s
//	max_retries: 3
//	retry_delay: 2s
//	batch_pause: 2s
//	sub_batch_pause: 500ms
//	write_pause: 100ms
//	max_body_size: 50MB
//	fields:
//	  owner: productId
//	  media: media
//	  url: medium
//	  kind: type
//
// Durations accept Go syntax ("1m30s") or a plain number of seconds.
package config

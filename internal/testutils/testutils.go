//go:build integration

// Package testutils provides shared test infrastructure for integration tests:
// an image origin server, a Minio bucket and a MongoDB collection, each
// running locally or in a container.
package testutils

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gocloud.dev/blob"
)

// jpegHeader is the start-of-image marker followed by a JFIF APP0 segment.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// Image is an asset served by the origin server.
type Image struct {
	Path string
	Data []byte

	// Status overrides the response code. 0 means 200 with Data.
	Status int
}

// GenerateImage returns size bytes that start like a JPEG file and continue
// with a deterministic pattern derived from seed.
func GenerateImage(t *testing.T, size int, seed byte) []byte {
	t.Helper()
	if size < len(jpegHeader) {
		t.Fatalf("image size %d smaller than header", size)
	}
	data := make([]byte, size)
	copy(data, jpegHeader)
	for i := len(jpegHeader); i < size; i++ {
		data[i] = byte(i) ^ seed
	}
	return data
}

// Origin is an image server that counts requests per path.
type Origin struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// Hits returns how many times path was requested.
func (o *Origin) Hits(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

// URLFor returns the absolute URL of path on the origin.
func (o *Origin) URLFor(path string) string {
	return o.Server.URL + path
}

// StartImageServer starts an origin serving images. Unknown paths get 404.
func StartImageServer(t *testing.T, images []Image) *Origin {
	t.Helper()

	byPath := make(map[string]Image, len(images))
	for _, img := range images {
		byPath[img.Path] = img
	}

	o := &Origin{hits: make(map[string]int)}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.hits[r.URL.Path]++
		o.mu.Unlock()

		img, ok := byPath[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if img.Status != 0 && img.Status != http.StatusOK {
			w.WriteHeader(img.Status)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(img.Data)
	}))
	t.Cleanup(o.Close)

	return o
}

// MinioEnv contains connection information for a Minio test environment.
type MinioEnv struct {
	Container testcontainers.Container
	BucketURL string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Close terminates the Minio container.
func (e *MinioEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// OpenBucket opens a gocloud bucket connection to the Minio environment.
func (e *MinioEnv) OpenBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, e.BucketURL)
}

// StartMinioContainer starts a Minio container with a pre-created bucket.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *MinioEnv {
	t.Helper()

	const (
		accessKey = "minioadmin"
		secretKey = "minioadmin"
	)

	networkName := fmt.Sprintf("imgupload-test-net-%d", time.Now().UnixNano())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name: networkName,
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(ctx) })

	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Networks:     []string{networkName},
		NetworkAliases: map[string][]string{
			networkName: {"minio"},
		},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
	}

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}

	createBucketWithMC(t, ctx, networkName, accessKey, secretKey, bucketName)

	host, err := minioContainer.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}
	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	bucketURL := fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
		bucketName,
		endpoint,
	)

	// gocloud reads credentials from the environment.
	t.Setenv("AWS_ACCESS_KEY_ID", accessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", secretKey)

	return &MinioEnv{
		Container: minioContainer,
		BucketURL: bucketURL,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}

// createBucketWithMC creates a bucket using a separate minio/mc container.
func createBucketWithMC(t *testing.T, ctx context.Context, networkName, accessKey, secretKey, bucketName string) {
	t.Helper()

	mcReq := testcontainers.ContainerRequest{
		Image:      "minio/mc:latest",
		Networks:   []string{networkName},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd: []string{
			fmt.Sprintf(
				"/usr/bin/mc config host add myminio http://minio:9000 %s %s && "+
					"/usr/bin/mc mb myminio/%s; "+
					"exit 0",
				accessKey, secretKey, bucketName,
			),
		},
		WaitingFor: wait.ForExit(),
	}

	mcContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: mcReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mc container: %v", err)
	}
	defer mcContainer.Terminate(ctx)
}

// MongoEnv contains connection information for a MongoDB test environment.
type MongoEnv struct {
	Container testcontainers.Container
	URI       string
}

// Close terminates the MongoDB container.
func (e *MongoEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// StartMongoContainer starts a single-node MongoDB server.
func StartMongoContainer(t *testing.T, ctx context.Context) *MongoEnv {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(2 * time.Minute),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mongo container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	return &MongoEnv{
		Container: c,
		URI:       fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
	}
}

// Seed inserts docs into database.collection.
func (e *MongoEnv) Seed(t *testing.T, ctx context.Context, database, collection string, docs []any) {
	t.Helper()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(e.URI))
	if err != nil {
		t.Fatalf("connect to mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	if _, err := client.Database(database).Collection(collection).InsertMany(ctx, docs); err != nil {
		t.Fatalf("seed %s.%s: %v", database, collection, err)
	}
}

// CompareObject checks that key exists in bkt with the expected content and
// content type.
func CompareObject(t *testing.T, ctx context.Context, bkt *blob.Bucket, key string, expected []byte, contentType string) {
	t.Helper()

	attrs, err := bkt.Attributes(ctx, key)
	if err != nil {
		t.Fatalf("attributes of %s: %v", key, err)
	}
	if attrs.ContentType != contentType {
		t.Errorf("%s: content type %q, want %q", key, attrs.ContentType, contentType)
	}

	data, err := bkt.ReadAll(ctx, key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	if !bytes.Equal(data, expected) {
		t.Fatalf("%s: content mismatch (%d bytes, want %d)", key, len(data), len(expected))
	}
}

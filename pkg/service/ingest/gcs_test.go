package ingest_test

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/service/ingest"
)

func TestNewBucketSource(t *testing.T) {
	t.Run("nil client is rejected", func(t *testing.T) {
		_, err := ingest.NewBucketSource(nil, "bucket", "")
		gt.Error(t, err)
	})

	t.Run("empty bucket is rejected", func(t *testing.T) {
		_, err := ingest.NewBucketSource(&storage.Client{}, "", "")
		gt.Error(t, err)
	})
}

func TestBucketSourceName(t *testing.T) {
	src, err := ingest.NewBucketSource(&storage.Client{}, "pythia-corpus", "kb")
	gt.NoError(t, err).Required()
	gt.Value(t, src.Name()).Equal("gs://pythia-corpus/kb")
}

func TestBucketSourceDocuments_Integration(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET environment variable not set")
	}
	prefix := os.Getenv("TEST_GCS_PREFIX")

	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	gt.NoError(t, err).Required()
	defer client.Close()

	src, err := ingest.NewBucketSource(client, bucket, prefix)
	gt.NoError(t, err).Required()

	count := 0
	for doc, err := range src.Documents(ctx) {
		gt.NoError(t, err).Required()
		gt.String(t, doc.Name).NotEqual("")
		count++
		t.Logf("Document: name=%s, size=%d", doc.Name, len(doc.Text))
	}

	t.Logf("Retrieved %d document(s) from gs://%s/%s", count, bucket, prefix)
}

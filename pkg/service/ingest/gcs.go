package ingest

import (
	"bytes"
	"context"
	"io"
	"iter"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/utils/safe"
	"google.golang.org/api/iterator"
)

// BucketSource reads corpus files from a Google Cloud Storage bucket,
// optionally restricted to an object prefix. Document names are object names
// with the prefix stripped, so the same corpus can move between a local
// directory and a bucket without changing chunk IDs.
type BucketSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewBucketSource creates a source for a GCS bucket and prefix
func NewBucketSource(client *storage.Client, bucket, prefix string) (*BucketSource, error) {
	if client == nil {
		return nil, goerr.New("storage client is required")
	}
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	return &BucketSource{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *BucketSource) Name() string {
	return "gs://" + path.Join(s.bucket, s.prefix)
}

func (s *BucketSource) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		bkt := s.client.Bucket(s.bucket)
		it := bkt.Objects(ctx, &storage.Query{Prefix: s.prefix})

		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to list bucket objects",
					goerr.V("bucket", s.bucket), goerr.V("prefix", s.prefix)))
				return
			}

			// folder placeholder objects end with a slash
			if strings.HasSuffix(attrs.Name, "/") || !IsCorpusFile(attrs.Name) {
				continue
			}

			doc, err := s.readObject(ctx, bkt, attrs.Name)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			if !yield(doc, nil) {
				return
			}
		}
	}
}

func (s *BucketSource) readObject(ctx context.Context, bkt *storage.BucketHandle, object string) (*model.Document, error) {
	r, err := bkt.Object(object).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("object", object))
	}
	defer safe.Close(ctx, r)

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("object", object))
	}

	name := strings.TrimPrefix(strings.TrimPrefix(object, s.prefix), "/")

	return &model.Document{Name: name, Text: string(bytes.TrimPrefix(raw, utf8BOM))}, nil
}

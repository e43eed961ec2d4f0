package firestore

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// distanceField is where FindNearest writes the computed cosine distance
// in each result document
const distanceField = "vector_distance"

// chunkDoc is the Firestore document representation of model.Chunk.
// Embedding is stored as firestore.Vector32 for FindNearest vector search.
// Distance is never persisted; it only carries the FindNearest result.
type chunkDoc struct {
	ID        model.ChunkID      `firestore:"ID"`
	Source    string             `firestore:"Source"`
	Index     int                `firestore:"Index"`
	Text      string             `firestore:"Text"`
	DocType   string             `firestore:"DocType"`
	Subject   string             `firestore:"Subject"`
	Category  string             `firestore:"Category"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	Distance  float64            `firestore:"vector_distance,omitempty"`
}

func toChunkDoc(c *model.Chunk, vector []float32) *chunkDoc {
	doc := &chunkDoc{
		ID:       c.ID,
		Source:   c.Source,
		Index:    c.Index,
		Text:     c.Text,
		DocType:  c.DocType.String(),
		Subject:  c.Subject,
		Category: c.Category,
	}
	if len(vector) > 0 {
		doc.Embedding = firestore.Vector32(vector)
	}
	return doc
}

func fromChunkDoc(d *chunkDoc) *model.Chunk {
	return &model.Chunk{
		ID:       d.ID,
		Source:   d.Source,
		Index:    d.Index,
		Text:     d.Text,
		DocType:  types.DocType(d.DocType).Normalize(),
		Subject:  d.Subject,
		Category: d.Category,
	}
}

type chunkRepository struct {
	client           *firestore.Client
	collectionPrefix string
	dimension        int
}

func newChunkRepository(client *firestore.Client) *chunkRepository {
	return &chunkRepository{client: client}
}

func (r *chunkRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "chunks")
}

func (r *chunkRepository) Upsert(ctx context.Context, chunks []*model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return goerr.New("chunk and vector counts differ",
			goerr.V("chunks", len(chunks)), goerr.V("vectors", len(vectors)))
	}
	if len(chunks) == 0 {
		return nil
	}

	for i, vec := range vectors {
		if len(vec) == 0 {
			return goerr.New("empty embedding vector", goerr.V("chunkID", chunks[i].ID))
		}
		if r.dimension != 0 && len(vec) != r.dimension {
			return goerr.New("embedding dimension mismatch",
				goerr.V("chunkID", chunks[i].ID),
				goerr.V("want", r.dimension),
				goerr.V("got", len(vec)))
		}
	}

	// BulkWriter handles the 500 writes per batch limit
	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for i, chunk := range chunks {
		docRef := r.collection().Doc(string(chunk.ID))
		if _, err := bulkWriter.Set(docRef, toChunkDoc(chunk, vectors[i])); err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("chunkID", chunk.ID))
		}
	}

	bulkWriter.Flush()

	return nil
}

func (r *chunkRepository) Get(ctx context.Context, id model.ChunkID) (*model.Chunk, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("chunkID", id))
		}
		return nil, goerr.Wrap(err, "failed to get chunk", goerr.V("chunkID", id))
	}

	var d chunkDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal chunk", goerr.V("chunkID", id))
	}

	return fromChunkDoc(&d), nil
}

func (r *chunkRepository) DeleteBySource(ctx context.Context, source string) (int, error) {
	iter := r.collection().
		Where("Source", "==", source).
		Select().
		Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to iterate chunks for deletion", goerr.V("source", source))
		}
		refs = append(refs, doc.Ref)
	}

	if len(refs) == 0 {
		return 0, nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, ref := range refs {
		if _, err := bulkWriter.Delete(ref); err != nil {
			return 0, goerr.Wrap(err, "failed to add Delete operation to bulk writer", goerr.V("source", source))
		}
	}

	bulkWriter.Flush()

	return len(refs), nil
}

func (r *chunkRepository) Search(ctx context.Context, vector []float32, limit int) ([]*model.ScoredChunk, error) {
	if limit <= 0 {
		return []*model.ScoredChunk{}, nil
	}

	vq := r.collection().FindNearest("Embedding", firestore.Vector32(vector), limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.ScoredChunk, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunk vector search results")
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk from vector search")
		}

		results = append(results, &model.ScoredChunk{
			Chunk:    fromChunkDoc(&d),
			Distance: d.Distance,
		})
	}

	// FindNearest already orders by distance; re-sort to pin down ordering
	// of equal distances
	sortScored(results)

	return results, nil
}

func (r *chunkRepository) Count(ctx context.Context) (int, error) {
	// Keys-only projection avoids pulling embedding payloads
	docs, err := r.collection().Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count chunks")
	}
	return len(docs), nil
}

func (r *chunkRepository) Sources(ctx context.Context) ([]string, error) {
	iter := r.collection().Select("Source").Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]bool)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunk sources")
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk source")
		}
		seen[d.Source] = true
	}

	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	return sources, nil
}

func sortScored(chunks []*model.ScoredChunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Distance != chunks[j].Distance {
			return chunks[i].Distance < chunks[j].Distance
		}
		if chunks[i].Chunk.Index != chunks[j].Chunk.Index {
			return chunks[i].Chunk.Index < chunks[j].Chunk.Index
		}
		return chunks[i].Chunk.Source < chunks[j].Chunk.Source
	})
}

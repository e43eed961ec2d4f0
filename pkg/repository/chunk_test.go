package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/domain/interfaces"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/repository/firestore"
	"github.com/verdant-lab/pythia/pkg/repository/memory"
)

// unitVector builds a normalized test embedding pointing along the given axes
func unitVector(dim int, components map[int]float32) []float32 {
	v := make([]float32, dim)
	for i, val := range components {
		v[i] = val
	}
	return v
}

func testChunk(source string, index int, text string) *model.Chunk {
	return model.NewChunk(source, index, text, model.Metadata{
		DocType: types.DocTypeProduct,
		Subject: "Boomschors",
	})
}

func runChunkRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	dim := model.DefaultEmbeddingDimension

	t.Run("Upsert and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		chunk := model.NewChunk("boomschors.txt", 0, "Sierschors van grove den, zak 60 liter.", model.Metadata{
			DocType:  types.DocTypeProduct,
			Subject:  "Boomschors",
			Category: "Bodembedekking",
		})

		err := repo.Chunk().Upsert(ctx, []*model.Chunk{chunk}, [][]float32{unitVector(dim, map[int]float32{0: 1})})
		gt.NoError(t, err).Required()

		retrieved, err := repo.Chunk().Get(ctx, chunk.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, retrieved.ID).Equal(chunk.ID)
		gt.Value(t, retrieved.Source).Equal("boomschors.txt")
		gt.Value(t, retrieved.Index).Equal(0)
		gt.Value(t, retrieved.Text).Equal("Sierschors van grove den, zak 60 liter.")
		gt.Value(t, retrieved.DocType).Equal(types.DocTypeProduct)
		gt.Value(t, retrieved.Subject).Equal("Boomschors")
		gt.Value(t, retrieved.Category).Equal("Bodembedekking")
	})

	t.Run("Get returns error for non-existent chunk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Chunk().Get(ctx, model.ChunkID("nope_chunk_0"))
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)).True()
	})

	t.Run("Upsert with same ID replaces the chunk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		v := [][]float32{unitVector(dim, map[int]float32{0: 1})}
		err := repo.Chunk().Upsert(ctx, []*model.Chunk{testChunk("heggen.txt", 0, "old text")}, v)
		gt.NoError(t, err).Required()

		err = repo.Chunk().Upsert(ctx, []*model.Chunk{testChunk("heggen.txt", 0, "new text")}, v)
		gt.NoError(t, err).Required()

		retrieved, err := repo.Chunk().Get(ctx, model.NewChunkID("heggen.txt", 0))
		gt.NoError(t, err).Required()
		gt.Value(t, retrieved.Text).Equal("new text")

		count, err := repo.Chunk().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)
	})

	t.Run("Upsert rejects mismatched chunk and vector counts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.Chunk().Upsert(ctx,
			[]*model.Chunk{testChunk("a.txt", 0, "x"), testChunk("a.txt", 1, "y")},
			[][]float32{unitVector(dim, nil)})
		gt.Error(t, err)
	})

	t.Run("DeleteBySource removes only that source", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		chunks := []*model.Chunk{
			testChunk("gazon.txt", 0, "a"),
			testChunk("gazon.txt", 1, "b"),
			testChunk("vijver.txt", 0, "c"),
		}
		vectors := [][]float32{
			unitVector(dim, map[int]float32{0: 1}),
			unitVector(dim, map[int]float32{1: 1}),
			unitVector(dim, map[int]float32{2: 1}),
		}
		gt.NoError(t, repo.Chunk().Upsert(ctx, chunks, vectors)).Required()

		removed, err := repo.Chunk().DeleteBySource(ctx, "gazon.txt")
		gt.NoError(t, err).Required()
		gt.Value(t, removed).Equal(2)

		count, err := repo.Chunk().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)

		_, err = repo.Chunk().Get(ctx, model.NewChunkID("vijver.txt", 0))
		gt.NoError(t, err)
	})

	t.Run("DeleteBySource of unknown source removes nothing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		removed, err := repo.Chunk().DeleteBySource(ctx, "missing.txt")
		gt.NoError(t, err).Required()
		gt.Value(t, removed).Equal(0)
	})

	t.Run("Sources lists distinct source names sorted", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		chunks := []*model.Chunk{
			testChunk("vijver.txt", 0, "a"),
			testChunk("gazon.txt", 0, "b"),
			testChunk("gazon.txt", 1, "c"),
		}
		vectors := [][]float32{
			unitVector(dim, map[int]float32{0: 1}),
			unitVector(dim, map[int]float32{1: 1}),
			unitVector(dim, map[int]float32{2: 1}),
		}
		gt.NoError(t, repo.Chunk().Upsert(ctx, chunks, vectors)).Required()

		sources, err := repo.Chunk().Sources(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, sources).Length(2)
		gt.Value(t, sources[0]).Equal("gazon.txt")
		gt.Value(t, sources[1]).Equal("vijver.txt")
	})

	t.Run("Search on empty index returns empty result", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		results, err := repo.Chunk().Search(ctx, unitVector(dim, map[int]float32{0: 1}), 5)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})

	t.Run("Search orders by ascending cosine distance", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		chunks := []*model.Chunk{
			testChunk("exact.txt", 0, "exact match"),
			testChunk("near.txt", 0, "partial match"),
			testChunk("far.txt", 0, "orthogonal"),
		}
		vectors := [][]float32{
			unitVector(dim, map[int]float32{0: 1}),
			unitVector(dim, map[int]float32{0: 1, 1: 1}),
			unitVector(dim, map[int]float32{1: 1}),
		}
		gt.NoError(t, repo.Chunk().Upsert(ctx, chunks, vectors)).Required()

		results, err := repo.Chunk().Search(ctx, unitVector(dim, map[int]float32{0: 1}), 3)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(3).Required()

		gt.Value(t, results[0].Chunk.Source).Equal("exact.txt")
		gt.Value(t, results[1].Chunk.Source).Equal("near.txt")
		gt.Value(t, results[2].Chunk.Source).Equal("far.txt")

		gt.Number(t, results[0].Distance).Less(0.01)
		for i := 1; i < len(results); i++ {
			gt.Bool(t, results[i-1].Distance <= results[i].Distance).True()
		}
	})

	t.Run("Search respects limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var chunks []*model.Chunk
		var vectors [][]float32
		for i := 0; i < 5; i++ {
			chunks = append(chunks, testChunk(fmt.Sprintf("doc%d.txt", i), 0, "text"))
			vectors = append(vectors, unitVector(dim, map[int]float32{0: 1, i + 1: float32(i) * 0.1}))
		}
		gt.NoError(t, repo.Chunk().Upsert(ctx, chunks, vectors)).Required()

		results, err := repo.Chunk().Search(ctx, unitVector(dim, map[int]float32{0: 1}), 3)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(3)
	})

	t.Run("Search breaks distance ties deterministically", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		same := unitVector(dim, map[int]float32{0: 1})
		chunks := []*model.Chunk{
			testChunk("bbb.txt", 0, "tie b"),
			testChunk("aaa.txt", 1, "tie a later chunk"),
			testChunk("aaa.txt", 0, "tie a"),
		}
		vectors := [][]float32{same, same, same}
		gt.NoError(t, repo.Chunk().Upsert(ctx, chunks, vectors)).Required()

		results, err := repo.Chunk().Search(ctx, same, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(3).Required()

		// equal distances: lower index first, then source name
		gt.Value(t, results[0].Chunk.Source).Equal("aaa.txt")
		gt.Value(t, results[0].Chunk.Index).Equal(0)
		gt.Value(t, results[1].Chunk.Source).Equal("bbb.txt")
		gt.Value(t, results[1].Chunk.Index).Equal(0)
		gt.Value(t, results[2].Chunk.Source).Equal("aaa.txt")
		gt.Value(t, results[2].Chunk.Index).Equal(1)
	})
}

// newFirestoreRepository connects to the project named by
// TEST_FIRESTORE_PROJECT_ID and empties the chunk collection so each
// subtest starts from a clean index. The collection (including the
// optional TEST_FIRESTORE_COLLECTION_PREFIX) must have been provisioned
// with the migrate command, since FindNearest needs its vector index.
func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	prefix := os.Getenv("TEST_FIRESTORE_COLLECTION_PREFIX")

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	sources, err := repo.Chunk().Sources(ctx)
	gt.NoError(t, err).Required()
	for _, source := range sources {
		_, err := repo.Chunk().DeleteBySource(ctx, source)
		gt.NoError(t, err).Required()
	}

	return repo
}

func TestMemoryChunkRepository(t *testing.T) {
	runChunkRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreChunkRepository(t *testing.T) {
	runChunkRepositoryTest(t, newFirestoreRepository)
}

func TestMemoryChunkRepository_DimensionCheck(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	err := repo.Chunk().Upsert(ctx,
		[]*model.Chunk{testChunk("a.txt", 0, "x")},
		[][]float32{{0.1, 0.2, 0.3}})
	gt.NoError(t, err).Required()

	// second upsert with a different dimension is rejected
	err = repo.Chunk().Upsert(ctx,
		[]*model.Chunk{testChunk("a.txt", 1, "y")},
		[][]float32{{0.1, 0.2}})
	gt.Error(t, err)

	// query vector must match as well
	_, err = repo.Chunk().Search(ctx, []float32{0.1}, 5)
	gt.Error(t, err)
}

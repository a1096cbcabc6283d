package store

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/types"
)

// wordHashEmbedder is a deterministic stand-in for the embedding model:
// a normalized bag-of-words vector, so identical texts embed identically
// and shared vocabulary yields nonzero similarity.
type wordHashEmbedder struct{}

func (wordHashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	norm := float32(math.Sqrt(sum))
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := NewChromemStore(t.TempDir(), wordHashEmbedder{})
	require.NoError(t, err)
	return s
}

func testChunks(contents ...string) []types.Chunk {
	chunks := make([]types.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = types.Chunk{
			ID:      uuid.New(),
			Index:   i,
			Content: content,
			Source:  "doc.txt",
			Page:    1,
		}
	}
	return chunks
}

func TestBuildAndRetrieveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks(
		"The sky is blue on a clear day.",
		"Grass grows green in the spring.",
		"Elephants are the largest land animals.",
	)
	count, err := s.Build(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Querying with a chunk's exact text must return that chunk first
	// with maximal similarity.
	results, err := s.Retrieve(ctx, "The sky is blue on a clear day.", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "The sky is blue on a clear day.", results[0].Content)
	assert.InDelta(t, 1.0, float64(results[0].Similarity), 0.01)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestRetrieveClampsK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Build(ctx, testChunks("first chunk of text", "second chunk of text"))
	require.NoError(t, err)

	results, err := s.Retrieve(ctx, "chunk of text", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestBuildReplacesPreviousIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Build(ctx, testChunks("the old document talks about sailing ships"))
	require.NoError(t, err)

	_, err = s.Build(ctx, testChunks(
		"the new document covers mountain climbing",
		"ropes and carabiners are essential gear",
	))
	require.NoError(t, err)

	results, err := s.Retrieve(ctx, "the old document talks about sailing ships", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "the old document talks about sailing ships", r.Content)
	}
}

func TestRetrieveFromEmptyIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A document with no extractable chunks still leaves a valid,
	// empty index behind.
	count, err := s.Build(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := s.Retrieve(ctx, "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveBeforeBuild(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Retrieve(context.Background(), "anything", 3)
	assert.Error(t, err)
}

func TestRetrieveCarriesMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks("a single chunk about penguins")
	chunks[0].Page = 4
	chunks[0].Index = 7
	_, err := s.Build(ctx, chunks)
	require.NoError(t, err)

	results, err := s.Retrieve(ctx, "penguins", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc.txt", results[0].Source)
	assert.Equal(t, 4, results[0].Page)
	assert.Equal(t, 7, results[0].Index)
}

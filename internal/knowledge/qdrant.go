package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// VectorStore mirrors snippet embeddings into Qdrant for semantic search.
type VectorStore struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

// NewVectorStore connects to Qdrant and makes sure the snippet collection
// exists. vectorSize must match the embedding model's output dimension.
func NewVectorStore(qdrantURL, apiKey, collection string, vectorSize uint64) (*VectorStore, error) {
	// Strip http:// or https:// prefix and any port
	qdrantURL = strings.TrimPrefix(qdrantURL, "http://")
	qdrantURL = strings.TrimPrefix(qdrantURL, "https://")

	host := qdrantURL
	if idx := strings.Index(qdrantURL, ":"); idx != -1 {
		host = qdrantURL[:idx]
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334, // gRPC port
		APIKey: apiKey,
		UseTLS: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	vs := &VectorStore{
		client:     client,
		collection: collection,
		vectorSize: vectorSize,
	}

	if err := vs.ensureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	return vs, nil
}

// ensureCollection creates the collection if it doesn't exist.
func (vs *VectorStore) ensureCollection(ctx context.Context) error {
	exists, err := vs.client.CollectionExists(ctx, vs.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = vs.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: vs.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vs.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Every retrieval filters on article_id.
	fieldType := qdrant.FieldType(qdrant.PayloadSchemaType_Keyword)
	_, err = vs.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: vs.collection,
		FieldName:      "article_id",
		FieldType:      &fieldType,
		Wait:           boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for article_id: %w", err)
	}

	return nil
}

// Upsert writes one snippet's embedding and payload into the collection.
// The snippet's database ID doubles as the point ID so re-adding a snippet
// overwrites its previous point.
func (vs *VectorStore) Upsert(ctx context.Context, snip *Snippet) error {
	if snip.ID == 0 || len(snip.Embedding) == 0 {
		return fmt.Errorf("snippet %d is not embeddable", snip.ID)
	}

	payload := map[string]*qdrant.Value{
		"snippet_id": qdrant.NewValueInt(int64(snip.ID)),
		"article_id": qdrant.NewValueString(articleKey(snip.ArticleID)),
		"text":       qdrant.NewValueString(snip.Text),
		"source":     qdrant.NewValueString(snip.Source),
		"position":   qdrant.NewValueInt(int64(snip.Position)),
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(snip.ID)),
		Vectors: qdrant.NewVectors(toFloat32(snip.Embedding)...),
		Payload: payload,
	}

	_, err := vs.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: vs.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert snippet: %w", err)
	}
	return nil
}

// Query returns the top k snippets for an embedded query, restricted to the
// article's own snippets plus the course-wide pool.
func (vs *VectorStore) Query(ctx context.Context, queryVec []float64, articleID uint, k int) ([]Snippet, error) {
	should := []*qdrant.Condition{
		qdrant.NewMatch("article_id", articleKey(0)),
	}
	if articleID != 0 {
		should = append(should, qdrant.NewMatch("article_id", articleKey(articleID)))
	}

	points, err := vs.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: vs.collection,
		Query:          qdrant.NewQuery(toFloat32(queryVec)...),
		Filter:         &qdrant.Filter{Should: should},
		Limit:          uint64Ptr(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	snippets := make([]Snippet, 0, len(points))
	for _, point := range points {
		snippets = append(snippets, pointToSnippet(point))
	}
	return snippets, nil
}

// pointToSnippet converts a Qdrant point back into a Snippet.
func pointToSnippet(point *qdrant.ScoredPoint) Snippet {
	payload := point.Payload
	articleID, _ := strconv.ParseUint(getStringFromPayload(payload, "article_id"), 10, 64)

	return Snippet{
		ID:        uint(getIntFromPayload(payload, "snippet_id")),
		ArticleID: uint(articleID),
		Text:      getStringFromPayload(payload, "text"),
		Source:    getStringFromPayload(payload, "source"),
		Position:  int(getIntFromPayload(payload, "position")),
	}
}

func getStringFromPayload(payload map[string]*qdrant.Value, key string) string {
	if val, ok := payload[key]; ok {
		return val.GetStringValue()
	}
	return ""
}

func getIntFromPayload(payload map[string]*qdrant.Value, key string) int64 {
	if val, ok := payload[key]; ok {
		return val.GetIntegerValue()
	}
	return 0
}

// articleKey renders an article ID as the keyword payload value Qdrant
// filters on.
func articleKey(articleID uint) string {
	return strconv.FormatUint(uint64(articleID), 10)
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

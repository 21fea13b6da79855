// Package qdrant provides a Qdrant vector database driver implementation.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdr "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing
	// biographer memory embeddings.
	DefaultCollectionName = "biographer_memories"

	// scrollPageSize bounds how many points one scroll request returns.
	scrollPageSize = 512
)

// QdrantDriver implements vector.Driver using Qdrant's gRPC API.
type QdrantDriver struct {
	client     *qdr.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port, typically 6334.
	Port int

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewQdrantDriver creates a new Qdrant vector driver and ensures the
// collection exists with a cosine distance index.
func NewQdrantDriver(ctx context.Context, c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdr.NewClient(&qdr.Config{
		Host: c.Host,
		Port: c.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdr.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdr.NewVectorsConfig(&qdr.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdr.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", collection),
	)

	return &QdrantDriver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// pointID maps a canonical entry ID onto a deterministic UUID. Qdrant only
// accepts integer or UUID point ids, so "{table}_{rowid}" is hashed into
// the UUID namespace; the original ID rides along in the payload.
func pointID(entryID string) *qdr.PointId {
	return qdr.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(entryID)).String())
}

// Upsert stores entries with their embeddings. An entry whose ID already
// exists is replaced.
func (d *QdrantDriver) Upsert(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdr.PointStruct, len(entries))
	for i, entry := range entries {
		payload := map[string]any{
			"entry_id": entry.ID,
			"document": entry.Document,
		}
		for k, v := range entry.Metadata {
			payload[k] = v
		}

		points[i] = &qdr.PointStruct{
			Id:      pointID(entry.ID),
			Vectors: qdr.NewVectors(entry.Embedding...),
			Payload: qdr.NewValueMap(payload),
		}
	}

	wait := true
	_, err := d.client.Upsert(ctx, &qdr.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted entries to qdrant",
		zap.Int("count", len(entries)),
	)

	return nil
}

// Query finds the topK most similar entries to the given embedding. A
// non-empty tables slice becomes a source_table keyword filter.
func (d *QdrantDriver) Query(ctx context.Context, embedding []float32, topK int, tables []string) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	limit := uint64(topK)
	query := &qdr.QueryPoints{
		CollectionName: d.collection,
		Query:          qdr.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdr.NewWithPayload(true),
	}

	if len(tables) > 0 {
		query.Filter = &qdr.Filter{
			Must: []*qdr.Condition{
				qdr.NewMatchKeywords("source_table", tables...),
			},
		}
	}

	points, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		entry := vector.Entry{Metadata: map[string]string{}}
		for k, v := range point.GetPayload() {
			s := v.GetStringValue()
			switch k {
			case "entry_id":
				entry.ID = s
			case "document":
				entry.Document = s
			default:
				entry.Metadata[k] = s
			}
		}

		results = append(results, vector.QueryResult{
			Entry: entry,
			// Qdrant reports cosine similarity in [-1, 1]; map onto the
			// driver's [0, 1] score range.
			Score: vector.ScoreFromDistance(float64(1 - point.GetScore())),
		})
	}

	d.logger.Debug("queried qdrant",
		zap.Int("results", len(results)),
		zap.Strings("tables", tables),
	)

	return results, nil
}

// All returns every stored entry with its embedding, scrolling the
// collection page by page.
func (d *QdrantDriver) All(ctx context.Context) ([]vector.Entry, error) {
	var (
		entries []vector.Entry
		offset  *qdr.PointId
	)

	for {
		limit := uint32(scrollPageSize)
		points, err := d.client.Scroll(ctx, &qdr.ScrollPoints{
			CollectionName: d.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdr.NewWithPayload(true),
			WithVectors:    qdr.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling points: %w", err)
		}
		if len(points) == 0 {
			break
		}

		for _, point := range points {
			entry := vector.Entry{Metadata: map[string]string{}}
			for k, v := range point.GetPayload() {
				s := v.GetStringValue()
				switch k {
				case "entry_id":
					entry.ID = s
				case "document":
					entry.Document = s
				default:
					entry.Metadata[k] = s
				}
			}
			if vectors := point.GetVectors(); vectors != nil {
				entry.Embedding = vectors.GetVector().GetData()
			}

			entries = append(entries, entry)
		}

		if len(points) < scrollPageSize {
			break
		}
		offset = points[len(points)-1].GetId()
	}

	return entries, nil
}

// IDs returns the IDs of every stored entry.
func (d *QdrantDriver) IDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		offset *qdr.PointId
	)

	for {
		limit := uint32(scrollPageSize)
		points, err := d.client.Scroll(ctx, &qdr.ScrollPoints{
			CollectionName: d.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdr.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling points: %w", err)
		}
		if len(points) == 0 {
			break
		}

		for _, point := range points {
			if v, ok := point.GetPayload()["entry_id"]; ok {
				ids = append(ids, v.GetStringValue())
			}
		}

		if len(points) < scrollPageSize {
			break
		}
		offset = points[len(points)-1].GetId()
	}

	return ids, nil
}

// Count returns the number of stored entries.
func (d *QdrantDriver) Count(ctx context.Context) (int, error) {
	exact := true
	count, err := d.client.Count(ctx, &qdr.CountPoints{
		CollectionName: d.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}

	return int(count), nil
}

// Delete removes entries by their IDs.
func (d *QdrantDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdr.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	wait := true
	_, err := d.client.Delete(ctx, &qdr.DeletePoints{
		CollectionName: d.collection,
		Points:         qdr.NewPointsSelector(pointIDs...),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted entries from qdrant",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}

// Ensure QdrantDriver implements vector.Driver
var _ vector.Driver = (*QdrantDriver)(nil)

// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
)

// Repository implements the VectorDB interface using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository bound to a story collection.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its snippets.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	return nil
}

// Save stores a snippet with its embedding.
func (r *Repository) Save(ctx context.Context, snippet entities.Snippet) error {
	return r.SaveBatch(ctx, []entities.Snippet{snippet})
}

// SaveBatch stores multiple snippets.
func (r *Repository) SaveBatch(ctx context.Context, snippets []entities.Snippet) error {
	points := make([]*pb.PointStruct, 0, len(snippets))

	for _, snippet := range snippets {
		pointID := snippet.ID
		if pointID == "" {
			pointID = uuid.New().String()
		}

		point := &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{
					Uuid: pointID,
				},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{
						Data: snippet.Embedding,
					},
				},
			},
			Payload: map[string]*pb.Value{
				"content_type": {Kind: &pb.Value_StringValue{StringValue: string(snippet.Type)}},
				"ref_id":       {Kind: &pb.Value_StringValue{StringValue: snippet.RefID}},
				"text":         {Kind: &pb.Value_StringValue{StringValue: snippet.Text}},
				"created_at":   {Kind: &pb.Value_StringValue{StringValue: snippet.CreatedAt.Format(time.RFC3339)}},
			},
		}
		points = append(points, point)
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// FindByID retrieves a snippet by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (entities.Snippet, error) {
	resp, err := r.points.Get(ctx, &pb.GetPoints{
		CollectionName: r.collection,
		Ids: []*pb.PointId{
			{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return entities.Snippet{}, fmt.Errorf("getting point: %w", err)
	}

	if len(resp.Result) == 0 {
		return entities.Snippet{}, fmt.Errorf("snippet %s: %w", id, entities.ErrNotFound)
	}

	return pointToSnippet(resp.Result[0]), nil
}

// Search performs a semantic search and returns similar snippets.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]entities.Snippet, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	return scoredPointsToSnippets(resp.Result), nil
}

// SearchByType performs a semantic search filtered by content type.
func (r *Repository) SearchByType(ctx context.Context, embedding []float32, contentType entities.ContentType, limit int) ([]entities.Snippet, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "content_type",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{
									Keyword: string(contentType),
								},
							},
						},
					},
				},
			},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points by type: %w", err)
	}

	return scoredPointsToSnippets(resp.Result), nil
}

// Delete removes a snippet by its ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// Count returns the total number of snippets in the collection.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

func scoredPointsToSnippets(points []*pb.ScoredPoint) []entities.Snippet {
	snippets := make([]entities.Snippet, 0, len(points))

	for _, point := range points {
		snippets = append(snippets, entities.Snippet{
			ID:        point.Id.GetUuid(),
			Type:      entities.ContentType(getStringValue(point.Payload, "content_type")),
			RefID:     getStringValue(point.Payload, "ref_id"),
			Text:      getStringValue(point.Payload, "text"),
			CreatedAt: parseTimeValue(point.Payload, "created_at"),
		})
	}

	return snippets
}

func pointToSnippet(point *pb.RetrievedPoint) entities.Snippet {
	var embedding []float32
	if vec := point.Vectors.GetVector(); vec != nil {
		embedding = vec.Data
	}

	return entities.Snippet{
		ID:        point.Id.GetUuid(),
		Type:      entities.ContentType(getStringValue(point.Payload, "content_type")),
		RefID:     getStringValue(point.Payload, "ref_id"),
		Text:      getStringValue(point.Payload, "text"),
		Embedding: embedding,
		CreatedAt: parseTimeValue(point.Payload, "created_at"),
	}
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func parseTimeValue(payload map[string]*pb.Value, key string) time.Time {
	raw := getStringValue(payload, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"
)

// Dimension is the vector length the managed index is created with.
const Dimension = 768

const readyPollInterval = 2 * time.Second

// PineconeConfig configures the managed index.
type PineconeConfig struct {
	APIKey    string
	IndexName string
	Region    string
	// ReadyTimeout bounds the wait for a newly created index.
	ReadyTimeout time.Duration
}

// PineconeIndex is an Index backed by a Pinecone serverless index.
type PineconeIndex struct {
	conn *pinecone.IndexConnection
}

// NewPineconeIndex connects to the named index, creating it (768 dims,
// cosine, serverless on GCP) when it does not exist.
func NewPineconeIndex(ctx context.Context, cfg PineconeConfig, logger zerolog.Logger) (*PineconeIndex, error) {
	log := logger.With().Str("component", "pinecone").Str("index", cfg.IndexName).Logger()

	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	indexes, err := pc.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	exists := slices.ContainsFunc(indexes, func(i *pinecone.Index) bool {
		return i != nil && i.Name == cfg.IndexName
	})

	if !exists {
		region := cfg.Region
		if region == "" {
			region = DefaultRegion
		}
		dim := int32(Dimension)
		metric := pinecone.Cosine
		if _, err := pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      cfg.IndexName,
			Dimension: &dim,
			Metric:    &metric,
			Cloud:     pinecone.Gcp,
			Region:    region,
		}); err != nil {
			return nil, fmt.Errorf("create index %s: %w", cfg.IndexName, err)
		}
		log.Info().Str("region", region).Msg("created pinecone index")
	}

	idx, err := waitReady(ctx, pc, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: idx.Host})
	if err != nil {
		return nil, fmt.Errorf("connect to index %s: %w", cfg.IndexName, err)
	}
	log.Debug().Str("host", idx.Host).Msg("pinecone index connected")
	return &PineconeIndex{conn: conn}, nil
}

func waitReady(ctx context.Context, pc *pinecone.Client, cfg PineconeConfig) (*pinecone.Index, error) {
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		idx, err := pc.DescribeIndex(ctx, cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("describe index %s: %w", cfg.IndexName, err)
		}
		if idx.Status == nil || idx.Status.Ready {
			return idx, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("index %s not ready: %w", cfg.IndexName, ctx.Err())
		case <-time.After(readyPollInterval):
		}
	}
}

func (p *PineconeIndex) Upsert(ctx context.Context, vectors []Vector) error {
	batch := make([]*pinecone.Vector, 0, len(vectors))
	for _, v := range vectors {
		meta, err := structpb.NewStruct(v.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", v.ID, err)
		}
		values := v.Values
		batch = append(batch, &pinecone.Vector{
			Id:       v.ID,
			Values:   &values,
			Metadata: meta,
		})
	}
	if _, err := p.conn.UpsertVectors(ctx, batch); err != nil {
		return fmt.Errorf("pinecone upsert: %w", err)
	}
	return nil
}

func (p *PineconeIndex) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	filter, err := buildFilter(req.Filter)
	if err != nil {
		return nil, err
	}
	res, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          req.Vector,
		TopK:            uint32(req.TopK),
		MetadataFilter:  filter,
		IncludeMetadata: req.IncludeMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	matches := make([]Match, 0, len(res.Matches))
	for _, sv := range res.Matches {
		if sv == nil || sv.Vector == nil {
			continue
		}
		m := Match{ID: sv.Vector.Id, Score: sv.Score}
		if sv.Vector.Metadata != nil {
			m.Metadata = sv.Vector.Metadata.AsMap()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Close releases the index connection.
func (p *PineconeIndex) Close() error {
	return p.conn.Close()
}

// buildFilter turns equality pairs into a Pinecone {"field": {"$eq": v}}
// filter. An empty filter returns nil.
func buildFilter(filter map[string]any) (*structpb.Struct, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(filter))
	for k, v := range filter {
		m[k] = map[string]any{"$eq": v}
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return s, nil
}

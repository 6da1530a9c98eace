package vectorstore

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const vectorsTable = "vectors"

// Metadata keys promoted to indexed columns.
const (
	keyUserID = "user_id"
	keyType   = "type"
)

// SQLiteIndex is a local Index that keeps vectors in a SQLite table and
// ranks them by brute-force cosine similarity.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex creates the vectors table in db when missing.
func NewSQLiteIndex(ctx context.Context, db *sql.DB) (*SQLiteIndex, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + vectorsTable + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			embedding BLOB NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vectors_user_type ON ` + vectorsTable + ` (user_id, type)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", vectorsTable, err)
		}
	}
	return &SQLiteIndex{db: db}, nil
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *SQLiteIndex) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	ins := builder().Insert(vectorsTable).
		Columns("id", "user_id", "type", "embedding", "metadata", "updated_at")
	now := time.Now().UnixMilli()
	for _, v := range vectors {
		meta, err := json.Marshal(v.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", v.ID, err)
		}
		ins.Values(v.ID, metaString(v.Metadata, keyUserID), metaString(v.Metadata, keyType),
			encodeValues(v.Values), string(meta), now)
	}
	query, args := ins.OnConflict(
		entsql.ConflictColumns("id"),
		entsql.ResolveWithNewValues(),
	).Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	b := builder()
	t := b.Table(vectorsTable)
	sel := b.Select(t.C("id"), t.C("embedding"), t.C("metadata")).From(t)

	// user_id and type are filtered in SQL; anything else is checked
	// against the decoded metadata.
	rest := make(map[string]any, len(req.Filter))
	for k, v := range req.Filter {
		switch k {
		case keyUserID, keyType:
			sel.Where(entsql.EQ(t.C(k), fmt.Sprint(v)))
		default:
			rest[k] = v
		}
	}
	sel.OrderBy(t.C("updated_at"), t.C("id"))

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			id       string
			blob     []byte
			metaJSON string
		)
		if err := rows.Scan(&id, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		var meta map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
		}
		if !matchesFilter(meta, rest) {
			continue
		}
		m := Match{ID: id, Score: cosine(req.Vector, decodeValues(blob))}
		if req.IncludeMetadata {
			m.Metadata = meta
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func matchesFilter(meta, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// cosine returns the cosine similarity of a and b over their common
// prefix, or 0 when either has zero norm.
func cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func encodeValues(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeValues(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}

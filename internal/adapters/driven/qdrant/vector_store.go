// Package qdrant implements the namespaced vector store on a single Qdrant
// collection. Namespaces are a keyword-indexed payload field.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

// Ensure VectorStore implements driven.VectorStore
var _ driven.VectorStore = (*VectorStore)(nil)

// Payload fields written alongside record metadata.
const (
	FieldNamespace = "namespace"
	FieldVectorID  = "vector_id"
)

const (
	defaultPort           = 6334
	defaultMaxRetries     = 3
	defaultRetryBackoff   = 200 * time.Millisecond
	defaultBatchSize      = 256
	defaultMaxMessageSize = 50 * 1024 * 1024
)

// pointIDNamespace seeds the UUIDv5 point ids. Changing it orphans every stored point.
var pointIDNamespace = uuid.MustParse("6f1c3d0e-4b7a-5e2f-9a8d-2c5b7e1f0a93")

// Config holds Qdrant connection settings.
type Config struct {
	Host           string
	Port           int // gRPC port, not the REST port
	APIKey         string
	UseTLS         bool
	Collection     string
	VectorSize     uint64
	MaxRetries     int
	RetryBackoff   time.Duration
	BatchSize      int
	MaxMessageSize int
	Logger         *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks the required settings.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: qdrant host required", domain.ErrInvalidInput)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid qdrant port %d", domain.ErrInvalidInput, c.Port)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: qdrant collection required", domain.ErrInvalidInput)
	}
	return nil
}

// VectorStore writes tenant records into one Qdrant collection.
type VectorStore struct {
	client *pb.Client
	cfg    Config
	logger *slog.Logger
}

// NewVectorStore connects to Qdrant. The collection is not created here;
// call EnsureCollection once the embedding dimensions are known.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := pb.NewClient(&pb.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	return &VectorStore{client: client, cfg: cfg, logger: cfg.Logger}, nil
}

// EnsureCollection creates the collection when missing and makes sure the
// namespace and websiteId payload fields are keyword indexed.
func (s *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	var exists bool
	err := s.retry(ctx, "collection_exists", func() error {
		var err error
		exists, err = s.client.CollectionExists(ctx, s.cfg.Collection)
		return err
	})
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.cfg.Collection, err)
	}

	if !exists {
		size := s.cfg.VectorSize
		if dims > 0 {
			size = uint64(dims)
		}
		if size == 0 {
			return fmt.Errorf("%w: vector size required to create collection", domain.ErrInvalidInput)
		}
		err = s.retry(ctx, "create_collection", func() error {
			return s.client.CreateCollection(ctx, &pb.CreateCollection{
				CollectionName: s.cfg.Collection,
				VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
					Size:     size,
					Distance: pb.Distance_Cosine,
				}),
			})
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", s.cfg.Collection, err)
		}
		s.logger.Info("created qdrant collection", "collection", s.cfg.Collection, "dimensions", size)
	}

	for _, field := range []string{FieldNamespace, domain.MetaWebsiteID} {
		err = s.retry(ctx, "create_field_index", func() error {
			_, err := s.client.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
				CollectionName: s.cfg.Collection,
				FieldName:      field,
				FieldType:      pb.FieldType_FieldTypeKeyword.Enum(),
				Wait:           pb.PtrOf(true),
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("index payload field %s: %w", field, err)
		}
	}
	return nil
}

func (s *VectorStore) Upsert(ctx context.Context, namespace string, records []*domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(records))
	for _, r := range records {
		point, err := toPoint(namespace, r)
		if err != nil {
			return err
		}
		points = append(points, point)
	}

	err := s.retry(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.cfg.Collection,
			Wait:           pb.PtrOf(true),
			Points:         points,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), namespace, err)
	}
	return nil
}

func (s *VectorStore) WipeNamespace(ctx context.Context, namespace string) error {
	err := s.retry(ctx, "wipe_namespace", func() error {
		_, err := s.client.Delete(ctx, &pb.DeletePoints{
			CollectionName: s.cfg.Collection,
			Wait:           pb.PtrOf(true),
			Points:         filterSelector(namespaceFilter(namespace)),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("wipe namespace %s: %w", namespace, err)
	}
	return nil
}

func (s *VectorStore) ProbeNamespace(ctx context.Context, namespace string) (bool, error) {
	var found bool
	err := s.retry(ctx, "probe_namespace", func() error {
		points, err := s.client.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: s.cfg.Collection,
			Filter:         namespaceFilter(namespace),
			Limit:          pb.PtrOf(uint32(1)),
			WithPayload:    pb.NewWithPayload(false),
		})
		if err != nil {
			return err
		}
		found = len(points) > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("probe namespace %s: %w", namespace, err)
	}
	return found, nil
}

// ScanLegacyDefault pages through points without a namespace that belong to
// the tenant, following the next-page offset until the server returns none.
func (s *VectorStore) ScanLegacyDefault(ctx context.Context, tenantID string) ([]string, error) {
	filter := legacyFilter(tenantID)
	limit := uint32(s.cfg.BatchSize)

	var (
		ids    []string
		offset *pb.PointId
	)
	for {
		var (
			page []*pb.RetrievedPoint
			next *pb.PointId
		)
		err := s.retry(ctx, "scan_legacy", func() error {
			var err error
			page, next, err = s.client.ScrollAndOffset(ctx, &pb.ScrollPoints{
				CollectionName: s.cfg.Collection,
				Filter:         filter,
				Limit:          pb.PtrOf(limit),
				Offset:         offset,
				WithPayload:    pb.NewWithPayload(false),
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("scan legacy records for %s: %w", tenantID, err)
		}

		for _, p := range page {
			ids = append(ids, pointIDString(p.GetId()))
		}

		if next == nil || (offset != nil && samePoint(next, offset)) {
			return ids, nil
		}
		offset = next
	}
}

func (s *VectorStore) DeleteByIDs(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(ids))

		pointIDs := make([]*pb.PointId, 0, end-start)
		for _, id := range ids[start:end] {
			pointIDs = append(pointIDs, parsePointID(id))
		}

		err := s.retry(ctx, "delete_ids", func() error {
			_, err := s.client.Delete(ctx, &pb.DeletePoints{
				CollectionName: s.cfg.Collection,
				Wait:           pb.PtrOf(true),
				Points: &pb.PointsSelector{
					PointsSelectorOneOf: &pb.PointsSelector_Points{
						Points: &pb.PointsIdsList{Ids: pointIDs},
					},
				},
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("delete %d points: %w", len(pointIDs), err)
		}
	}
	return nil
}

func (s *VectorStore) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

func (s *VectorStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// retry runs op, retrying transient gRPC failures with exponential backoff.
func (s *VectorStore) retry(ctx context.Context, op string, fn func() error) error {
	backoff := s.cfg.RetryBackoff

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransientError(err) || attempt >= s.cfg.MaxRetries {
			return err
		}

		metrics.VectorStoreRetries.WithLabelValues(op).Inc()
		s.logger.Warn("retrying qdrant operation", "operation", op, "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// IsTransientError reports whether a gRPC error is worth retrying.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// PointID derives the Qdrant point id of a record. The same record id in two
// namespaces maps to two points.
func PointID(namespace, recordID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(namespace+"/"+recordID)).String()
}

func toPoint(namespace string, r *domain.VectorRecord) (*pb.PointStruct, error) {
	if len(r.Embedding) == 0 {
		return nil, fmt.Errorf("record %s has no embedding", r.ID)
	}

	payload := make(map[string]*pb.Value, len(r.Metadata)+2)
	for k, v := range r.Metadata {
		val, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("record %s metadata %s: %w", r.ID, k, err)
		}
		payload[k] = val
	}
	payload[FieldNamespace] = stringValue(namespace)
	payload[FieldVectorID] = stringValue(r.ID)

	return &pb.PointStruct{
		Id:      pb.NewIDUUID(PointID(namespace, r.ID)),
		Vectors: pb.NewVectors(r.Embedding...),
		Payload: payload,
	}, nil
}

// toValue converts a metadata value into a Qdrant payload value.
func toValue(v any) (*pb.Value, error) {
	switch val := v.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}, nil
	case string:
		return stringValue(val), nil
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}, nil
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}, nil
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}, nil
	case float32:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: float64(val)}}, nil
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}, nil
	case time.Time:
		return stringValue(val.UTC().Format(time.RFC3339)), nil
	case []string:
		values := make([]*pb.Value, len(val))
		for i, s := range val {
			values[i] = stringValue(s)
		}
		return listValue(values), nil
	case []any:
		values := make([]*pb.Value, len(val))
		for i, item := range val {
			converted, err := toValue(item)
			if err != nil {
				return nil, err
			}
			values[i] = converted
		}
		return listValue(values), nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", v)
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func listValue(values []*pb.Value) *pb.Value {
	return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
}

func matchKeyword(field, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: field,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func namespaceFilter(namespace string) *pb.Filter {
	return &pb.Filter{Must: []*pb.Condition{matchKeyword(FieldNamespace, namespace)}}
}

// legacyFilter matches the tenant's points whose namespace is missing, null or "".
func legacyFilter(tenantID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{matchKeyword(domain.MetaWebsiteID, tenantID)},
		Should: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_IsEmpty{
					IsEmpty: &pb.IsEmptyCondition{Key: FieldNamespace},
				},
			},
			matchKeyword(FieldNamespace, ""),
		},
	}
}

func filterSelector(f *pb.Filter) *pb.PointsSelector {
	return &pb.PointsSelector{
		PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: f},
	}
}

// parsePointID accepts the ids returned by ScanLegacyDefault: UUIDs or
// unsigned integers.
func parsePointID(id string) *pb.PointId {
	if num, err := strconv.ParseUint(id, 10, 64); err == nil {
		return pb.NewIDNum(num)
	}
	return pb.NewIDUUID(id)
}

func pointIDString(id *pb.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func samePoint(a, b *pb.PointId) bool {
	return pointIDString(a) == pointIDString(b)
}

package qdrant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

func testStore(maxRetries int) *VectorStore {
	cfg := Config{
		Host:         "localhost",
		Collection:   "widget",
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	cfg.applyDefaults()
	return &VectorStore{cfg: cfg, logger: cfg.Logger}
}

func TestPointID(t *testing.T) {
	a := PointID("t1", "product-3")
	assert.Equal(t, a, PointID("t1", "product-3"))
	assert.NotEqual(t, a, PointID("t2", "product-3"))
	assert.NotEqual(t, a, PointID("t1", "product-4"))
	assert.Len(t, a, 36)
}

func TestToPoint(t *testing.T) {
	r := &domain.VectorRecord{
		ID:        "product-3",
		Embedding: []float32{0.1, 0.2},
		Metadata: map[string]any{
			domain.MetaType:      "product",
			domain.MetaWebsiteID: "t1",
			"price":              10.5,
			"rating":             4,
			"verified":           true,
			"reviewIds":          []string{"review-4", "review-5"},
			"salePrice":          nil,
		},
	}

	point, err := toPoint("t1", r)
	require.NoError(t, err)

	assert.Equal(t, PointID("t1", "product-3"), point.GetId().GetUuid())
	assert.Equal(t, "t1", point.Payload[FieldNamespace].GetStringValue())
	assert.Equal(t, "product-3", point.Payload[FieldVectorID].GetStringValue())
	assert.Equal(t, "product", point.Payload[domain.MetaType].GetStringValue())
	assert.Equal(t, 10.5, point.Payload["price"].GetDoubleValue())
	assert.Equal(t, int64(4), point.Payload["rating"].GetIntegerValue())
	assert.True(t, point.Payload["verified"].GetBoolValue())

	reviews := point.Payload["reviewIds"].GetListValue().GetValues()
	require.Len(t, reviews, 2)
	assert.Equal(t, "review-4", reviews[0].GetStringValue())
	assert.Equal(t, pb.NullValue_NULL_VALUE, point.Payload["salePrice"].GetNullValue())
}

func TestToPoint_Rejects(t *testing.T) {
	_, err := toPoint("t1", &domain.VectorRecord{ID: "document-1"})
	assert.Error(t, err)

	_, err = toPoint("t1", &domain.VectorRecord{
		ID:        "document-1",
		Embedding: []float32{1},
		Metadata:  map[string]any{"bad": struct{}{}},
	})
	assert.ErrorContains(t, err, "unsupported payload type")
}

func TestToValue_Time(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	v, err := toValue(ts)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T11:00:00Z", v.GetStringValue())
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{status.Error(grpccodes.Unavailable, "down"), true},
		{status.Error(grpccodes.DeadlineExceeded, "slow"), true},
		{status.Error(grpccodes.ResourceExhausted, "busy"), true},
		{status.Error(grpccodes.Aborted, "aborted"), true},
		{status.Error(grpccodes.InvalidArgument, "bad"), false},
		{status.Error(grpccodes.NotFound, "missing"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransientError(tt.err), "%v", tt.err)
	}
}

func TestRetry(t *testing.T) {
	t.Run("transient then success", func(t *testing.T) {
		s := testStore(3)
		calls := 0
		err := s.retry(context.Background(), "upsert", func() error {
			calls++
			if calls < 3 {
				return status.Error(grpccodes.Unavailable, "down")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent stops at once", func(t *testing.T) {
		s := testStore(3)
		calls := 0
		err := s.retry(context.Background(), "upsert", func() error {
			calls++
			return status.Error(grpccodes.InvalidArgument, "bad")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		s := testStore(2)
		calls := 0
		err := s.retry(context.Background(), "upsert", func() error {
			calls++
			return status.Error(grpccodes.Unavailable, "down")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("context canceled", func(t *testing.T) {
		s := testStore(5)
		s.cfg.RetryBackoff = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.retry(ctx, "upsert", func() error {
			return status.Error(grpccodes.Unavailable, "down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLegacyFilter(t *testing.T) {
	f := legacyFilter("t1")
	require.Len(t, f.Must, 1)
	assert.Equal(t, domain.MetaWebsiteID, f.Must[0].GetField().GetKey())
	assert.Equal(t, "t1", f.Must[0].GetField().GetMatch().GetKeyword())
	require.Len(t, f.Should, 2)
	assert.Equal(t, FieldNamespace, f.Should[0].GetIsEmpty().GetKey())
}

func TestPointIDRoundTrip(t *testing.T) {
	u := PointID("t1", "document-1")
	assert.Equal(t, u, pointIDString(parsePointID(u)))
	assert.Equal(t, uint64(42), parsePointID("42").GetNum())
	assert.Equal(t, "42", pointIDString(parsePointID("42")))
	assert.True(t, samePoint(parsePointID("42"), pb.NewIDNum(42)))
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Host: "localhost", Collection: "widget"}
	cfg.applyDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, defaultPort, cfg.Port)

	assert.ErrorIs(t, Config{Collection: "c", Port: 1}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, Config{Host: "h", Port: 1}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, Config{Host: "h", Collection: "c", Port: 70000}.Validate(), domain.ErrInvalidInput)
}

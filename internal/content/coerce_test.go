package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{nil, "", false},
		{"  hello ", "hello", true},
		{[]byte("bytes"), "bytes", true},
		{int64(42), "42", true},
		{7, "7", true},
		{2.5, "2.5", true},
		{true, "true", true},
		{"   ", "", false},
		{struct{}{}, "", false},
	}

	for _, tt := range tests {
		got, ok := AsString(tt.in)
		assert.Equal(t, tt.want, got, "input %#v", tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %#v", tt.in)
	}
}

func TestAsInt(t *testing.T) {
	n, ok := AsInt(int64(5))
	assert.True(t, ok)
	assert.Equal(t, int64(5), n)

	n, ok = AsInt([]byte("12"))
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	n, ok = AsInt("4.9")
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	_, ok = AsInt("five")
	assert.False(t, ok)

	_, ok = AsInt(nil)
	assert.False(t, ok)
}

func TestAsFloat(t *testing.T) {
	f, ok := AsFloat([]byte("19.99"))
	assert.True(t, ok)
	assert.InDelta(t, 19.99, f, 1e-9)

	f, ok = AsFloat(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = AsFloat("")
	assert.False(t, ok)

	_, ok = AsFloat(nil)
	assert.False(t, ok)
}

func TestAsBool(t *testing.T) {
	for _, in := range []any{true, "t", "true", []byte("1"), int64(1)} {
		b, ok := AsBool(in)
		assert.True(t, ok, "input %#v", in)
		assert.True(t, b, "input %#v", in)
	}
	for _, in := range []any{false, "f", "false", int64(0)} {
		b, ok := AsBool(in)
		assert.True(t, ok, "input %#v", in)
		assert.False(t, b, "input %#v", in)
	}
	_, ok := AsBool("maybe")
	assert.False(t, ok)
}

func TestAsTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	got, ok := AsTime(want.In(time.FixedZone("X", 3600)))
	assert.True(t, ok)
	assert.True(t, want.Equal(got))
	assert.Equal(t, time.UTC, got.Location())

	got, ok = AsTime("2024-03-01T12:30:00Z")
	assert.True(t, ok)
	assert.True(t, want.Equal(got))

	got, ok = AsTime([]byte("2024-03-01 12:30:00"))
	assert.True(t, ok)
	assert.True(t, want.Equal(got))

	got, ok = AsTime("2024-03-01")
	assert.True(t, ok)
	assert.Equal(t, 2024, got.Year())

	_, ok = AsTime(time.Time{})
	assert.False(t, ok)

	_, ok = AsTime("not a date")
	assert.False(t, ok)

	_, ok = AsTime(nil)
	assert.False(t, ok)
}

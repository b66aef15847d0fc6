package transport

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestDecodeRequest(t *testing.T) {
	msg := mustStruct(t, map[string]any{
		"id":   "req-1",
		"path": "/demo/add",
		"params": map[string]any{
			"a":    "3",
			"b":    4,
			"f":    1.5,
			"ok":   true,
			"none": nil,
			"tags": []any{"x", 2},
		},
	})

	req, err := DecodeRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, "/demo/add", req.Path)

	want := url.Values{
		"a":    {"3"},
		"b":    {"4"},
		"f":    {"1.5"},
		"ok":   {"true"},
		"none": {""},
		"tags": {"x", "2"},
	}
	if diff := cmp.Diff(want, req.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequestNumericID(t *testing.T) {
	req, err := DecodeRequest(mustStruct(t, map[string]any{"id": 7, "path": "/x"}))
	require.NoError(t, err)
	assert.Equal(t, "7", req.ID)
	assert.Empty(t, req.Params)
}

func TestDecodeRequestRejectsMalformedFrames(t *testing.T) {
	tests := map[string]map[string]any{
		"missing path":  {"id": "1"},
		"path not text": {"path": 3},
		"nested param":  {"path": "/x", "params": map[string]any{"p": map[string]any{"q": 1}}},
		"nested list":   {"path": "/x", "params": map[string]any{"p": []any{[]any{1}}}},
		"struct id":     {"id": map[string]any{}, "path": "/x"},
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRequest(mustStruct(t, m))
			assert.ErrorIs(t, err, ErrBadFrame)
		})
	}
}

func TestEncodeReply(t *testing.T) {
	reply := EncodeReply("9", 500, "boom")
	assert.Equal(t, map[string]any{"id": "9", "status": 500.0, "body": "boom"}, reply.AsMap())
}

func TestBufferedWriter(t *testing.T) {
	w := newBufferedWriter()
	assert.Equal(t, 200, w.Status())

	w.WriteHeader(404)
	w.WriteHeader(500)
	_, _ = w.Write([]byte("gone"))
	assert.Equal(t, 404, w.Status())
	assert.Equal(t, "gone", w.body.String())
}

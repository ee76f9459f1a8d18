package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
)

func startEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(history.New(nil), clip.NewMemory(), engine.WithoutMonitoring())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return e
}

func dialBufconn(t *testing.T, srv HistoryServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ForceServerCodec(Codec))
	Register(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(
		func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) },
	))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func record(t *testing.T, c *Client, text string) Item {
	t.Helper()
	resp, err := c.Record(context.Background(), &RecordRequest{Kind: content.KindText, Data: []byte(text)})
	require.NoError(t, err)
	return resp.Item
}

func TestClientRoundTrip(t *testing.T) {
	c := dialBufconn(t, New(startEngine(t)))
	ctx := context.Background()

	a := record(t, c, "alpha")
	b := record(t, c, "beta")
	assert.Equal(t, content.KindText, a.Kind)
	assert.Equal(t, "alpha", a.Preview)

	require.NoError(t, c.TogglePin(ctx, a.ID))
	require.NoError(t, c.AddTag(ctx, b.ID, "work"))

	resp, err := c.List(ctx, &ListRequest{IncludeData: true})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, a.ID, resp.Items[0].ID, "pinned first")
	assert.True(t, resp.Items[0].Pinned)
	assert.Equal(t, []string{"work"}, resp.Items[1].Tags)
	got, err := resp.Items[1].Content()
	require.NoError(t, err)
	assert.Equal(t, content.Text("beta"), got)

	resp, err = c.List(ctx, &ListRequest{Tags: []string{"work"}})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Nil(t, resp.Items[0].Data)

	resp, err = c.List(ctx, &ListRequest{Search: "ALP"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, a.ID, resp.Items[0].ID)

	resp, err = c.List(ctx, &ListRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	tags, err := c.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, tags)

	require.NoError(t, c.RemoveTag(ctx, b.ID, "work"))
	tags, err = c.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Items)
	assert.Equal(t, 1, st.Pinned)
	assert.Equal(t, 2, st.Recorded)
	assert.Equal(t, "in-memory", st.Backend)
	assert.False(t, st.Monitoring)

	require.NoError(t, c.Clear(ctx))
	resp, err = c.List(ctx, &ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestErrorCodes(t *testing.T) {
	c := dialBufconn(t, New(startEngine(t)))
	ctx := context.Background()
	a := record(t, c, "alpha")

	err := c.AddTag(ctx, a.ID, "a,b")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = c.RemoveTag(ctx, "missing", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Record(ctx, &RecordRequest{Kind: content.KindImage, Data: []byte("nope")})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// Unknown ids are not errors.
	require.NoError(t, c.TogglePin(ctx, "missing"))
	require.NoError(t, c.CopyOut(ctx, "missing"))
}

func TestStoppedEngineIsUnavailable(t *testing.T) {
	e := engine.New(history.New(nil), clip.NewMemory(), engine.WithoutMonitoring())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	c := dialBufconn(t, New(e))
	_, err := c.Tags(context.Background())
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestWatch(t *testing.T) {
	c := dialBufconn(t, New(startEngine(t)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := c.Watch(ctx)
	require.NoError(t, err)

	// The subscription is registered asynchronously; record until an event
	// arrives.
	got := make(chan *WatchEvent, 1)
	go func() {
		ev, err := w.Recv()
		if err == nil {
			got <- ev
		}
	}()
	require.Eventually(t, func() bool {
		_, _ = c.Record(ctx, &RecordRequest{Kind: content.KindText, Data: []byte("x")})
		select {
		case ev := <-got:
			assert.Equal(t, "items_changed", ev.Event)
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGateway(t *testing.T) {
	e := startEngine(t)
	srv := New(e)
	mux, err := NewGateway(srv)
	require.NoError(t, err)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	do := func(method, path, body string) (*http.Response, []byte) {
		t.Helper()
		req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, data
	}

	resp, body := do(http.MethodPost, "/v1/items", `{"kind":"text","data":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rec RecordResponse
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "hello", rec.Item.Preview)
	id := rec.Item.ID

	resp, _ = do(http.MethodPut, "/v1/items/"+id+"/tags/work", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(http.MethodPut, "/v1/items/"+id+"/tags/a,b", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var eb errorBody
	require.NoError(t, json.Unmarshal(body, &eb))
	assert.Equal(t, "InvalidArgument", eb.Code)

	resp, _ = do(http.MethodPost, "/v1/items/"+id+"/pin", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(http.MethodGet, "/v1/items?tag=work&q=HEL", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list ListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].Pinned)

	resp, _ = do(http.MethodGet, "/v1/items?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(http.MethodGet, "/v1/tags", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags TagsResponse
	require.NoError(t, json.Unmarshal(body, &tags))
	assert.Equal(t, []string{"work"}, tags.Tags)

	resp, _ = do(http.MethodPost, "/v1/items/"+id+"/copy", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(http.MethodDelete, "/v1/items/"+id+"/tags/work", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(http.MethodDelete, "/v1/items", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st StatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Zero(t, st.Items)
	assert.Equal(t, 1, st.Recorded)
}

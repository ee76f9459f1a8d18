package rpc

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var marshaler gwruntime.Marshaler = &gwruntime.JSONBuiltin{}

// NewGateway returns an HTTP mux exposing srv as JSON:
//
//	GET    /v1/items?q=&tag=&limit=&data=
//	DELETE /v1/items
//	POST   /v1/items                   body: RecordRequest
//	POST   /v1/items/{id}/pin
//	POST   /v1/items/{id}/copy
//	PUT    /v1/items/{id}/tags/{tag}
//	DELETE /v1/items/{id}/tags/{tag}
//	GET    /v1/tags
//	GET    /v1/status
func NewGateway(srv HistoryServer) (*gwruntime.ServeMux, error) {
	mux := gwruntime.NewServeMux()

	routes := []struct {
		method, pattern string
		h               gwruntime.HandlerFunc
	}{
		{http.MethodGet, "/v1/items", handle(srv, listFromQuery, HistoryServer.List)},
		{http.MethodDelete, "/v1/items", handle(srv, empty, HistoryServer.Clear)},
		{http.MethodPost, "/v1/items", handle(srv, fromBody[RecordRequest], HistoryServer.Record)},
		{http.MethodPost, "/v1/items/{id}/pin", handle(srv, itemFromPath, HistoryServer.TogglePin)},
		{http.MethodPost, "/v1/items/{id}/copy", handle(srv, itemFromPath, HistoryServer.CopyOut)},
		{http.MethodPut, "/v1/items/{id}/tags/{tag}", handle(srv, tagFromPath, HistoryServer.AddTag)},
		{http.MethodDelete, "/v1/items/{id}/tags/{tag}", handle(srv, tagFromPath, HistoryServer.RemoveTag)},
		{http.MethodGet, "/v1/tags", handle(srv, empty, HistoryServer.Tags)},
		{http.MethodGet, "/v1/status", handle(srv, empty, HistoryServer.Status)},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.h); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

func handle[Req, Resp any](
	srv HistoryServer,
	decode func(*http.Request, map[string]string) (*Req, error),
	call func(HistoryServer, context.Context, *Req) (*Resp, error),
) gwruntime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		req, err := decode(r, params)
		if err != nil {
			writeError(w, status.Error(codes.InvalidArgument, err.Error()))
			return
		}
		resp, err := call(srv, r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func empty(*http.Request, map[string]string) (*Empty, error) { return &Empty{}, nil }

func itemFromPath(_ *http.Request, params map[string]string) (*ItemRequest, error) {
	return &ItemRequest{ID: params["id"]}, nil
}

func tagFromPath(_ *http.Request, params map[string]string) (*TagRequest, error) {
	return &TagRequest{ID: params["id"], Tag: params["tag"]}, nil
}

func listFromQuery(r *http.Request, _ map[string]string) (*ListRequest, error) {
	q := r.URL.Query()
	req := &ListRequest{Search: q.Get("q"), Tags: q["tag"]}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		req.Limit = n
	}
	if s := q.Get("data"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		req.IncludeData = b
	}
	return req, nil
}

func fromBody[Req any](r *http.Request, _ map[string]string) (*Req, error) {
	req := new(Req)
	if err := marshaler.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	writeJSON(w, gwruntime.HTTPStatusFromCode(st.Code()), errorBody{
		Code:    st.Code().String(),
		Message: st.Message(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	buf, err := marshaler.Marshal(v)
	if err != nil {
		slog.Error("gateway: marshal response", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", marshaler.ContentType(v))
	w.WriteHeader(code)
	_, _ = w.Write(buf)
}

// Package rpc implements the clipstash.v1.History gRPC service.
//
// The service descriptor is declared by hand and messages travel as JSON
// (see Codec), so no generated protobuf code is involved. The same Service
// also backs the HTTP routes registered by NewGateway.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
)

// watchBuffer is the per-stream event buffer.
const watchBuffer = 16

// Service implements HistoryServer on top of an engine.
type Service struct {
	e *engine.Engine
}

var _ HistoryServer = (*Service)(nil)

// New returns a Service backed by e.
func New(e *engine.Engine) *Service {
	return &Service{e: e}
}

// List implements History.List.
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	items, err := s.e.Query(ctx, req.Search, req.Tags)
	if err != nil {
		return nil, toStatus(err)
	}
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}
	out := &ListResponse{Items: make([]Item, len(items))}
	for i, it := range items {
		out.Items[i] = NewItem(it, req.IncludeData)
	}
	return out, nil
}

// Record implements History.Record.
func (s *Service) Record(ctx context.Context, req *RecordRequest) (*RecordResponse, error) {
	c, err := content.Decode(req.Kind, req.Data)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	it, err := s.e.Record(ctx, c)
	if err != nil {
		return nil, toStatus(err)
	}
	slog.Debug("item recorded over rpc", "id", it.ID, "peer", addrFromCtx(ctx))
	return &RecordResponse{Item: NewItem(it, false)}, nil
}

// TogglePin implements History.TogglePin.
func (s *Service) TogglePin(ctx context.Context, req *ItemRequest) (*Empty, error) {
	if err := s.e.TogglePin(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// AddTag implements History.AddTag.
func (s *Service) AddTag(ctx context.Context, req *TagRequest) (*Empty, error) {
	if err := s.e.AddTag(ctx, req.ID, req.Tag); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// RemoveTag implements History.RemoveTag.
func (s *Service) RemoveTag(ctx context.Context, req *TagRequest) (*Empty, error) {
	if err := s.e.RemoveTag(ctx, req.ID, req.Tag); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// Clear implements History.Clear.
func (s *Service) Clear(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.e.ClearAll(ctx); err != nil {
		return nil, toStatus(err)
	}
	slog.Info("history cleared", "peer", addrFromCtx(ctx))
	return &Empty{}, nil
}

// CopyOut implements History.CopyOut.
func (s *Service) CopyOut(ctx context.Context, req *ItemRequest) (*Empty, error) {
	if err := s.e.CopyOut(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// Tags implements History.Tags.
func (s *Service) Tags(ctx context.Context, _ *Empty) (*TagsResponse, error) {
	tags, err := s.e.Tags(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return &TagsResponse{Tags: tags}, nil
}

// Status implements History.Status.
func (s *Service) Status(ctx context.Context, _ *Empty) (*StatusResponse, error) {
	st, err := s.e.Status(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStatus(st), nil
}

// Watch implements History.Watch. It streams one WatchEvent per history event
// until the client goes away or the engine stops.
func (s *Service) Watch(_ *WatchRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()
	events, cancel, err := s.e.Subscribe(ctx, watchBuffer)
	if err != nil {
		return toStatus(err)
	}
	defer cancel()

	addr := addrFromCtx(ctx)
	slog.Info("watch started", "peer", addr)
	defer slog.Info("watch ended", "peer", addr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, engine.ErrStopped.Error())
			}
			if err := stream.SendMsg(&WatchEvent{Event: ev.String(), Time: time.Now()}); err != nil {
				return err
			}
		}
	}
}

// toStatus maps engine and history errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, history.ErrInvalidTag):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}

func addrFromCtx(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "local"
}

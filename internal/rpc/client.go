package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is a History service client.
type Client struct {
	conn *grpc.ClientConn
}

// Dial returns a Client for target, e.g. "unix:///run/user/1000/clipstash.sock".
// The connection is established lazily on the first call.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, fullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c, "List", req)
}

func (c *Client) Record(ctx context.Context, req *RecordRequest) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c, "Record", req)
}

func (c *Client) TogglePin(ctx context.Context, id string) error {
	_, err := invoke[Empty](ctx, c, "TogglePin", &ItemRequest{ID: id})
	return err
}

func (c *Client) AddTag(ctx context.Context, id, tag string) error {
	_, err := invoke[Empty](ctx, c, "AddTag", &TagRequest{ID: id, Tag: tag})
	return err
}

func (c *Client) RemoveTag(ctx context.Context, id, tag string) error {
	_, err := invoke[Empty](ctx, c, "RemoveTag", &TagRequest{ID: id, Tag: tag})
	return err
}

func (c *Client) Clear(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c, "Clear", &Empty{})
	return err
}

func (c *Client) CopyOut(ctx context.Context, id string) error {
	_, err := invoke[Empty](ctx, c, "CopyOut", &ItemRequest{ID: id})
	return err
}

func (c *Client) Tags(ctx context.Context) ([]string, error) {
	resp, err := invoke[TagsResponse](ctx, c, "Tags", &Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Status", &Empty{})
}

// Watch opens an event stream. Cancel ctx to end it.
func (c *Client) Watch(ctx context.Context) (*WatchStream, error) {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("Watch"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WatchStream{stream: stream}, nil
}

// WatchStream receives history events.
type WatchStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event.
func (w *WatchStream) Recv() (*WatchEvent, error) {
	ev := new(WatchEvent)
	if err := w.stream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

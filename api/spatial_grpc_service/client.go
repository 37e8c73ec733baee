package spatialgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
)

// Client is a typed wrapper around a connection to the SpatialIndex service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to target. Callers supply transport credentials in opts.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)))
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create spatial index client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close tears down the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req, reply any) error {
	return c.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(codecName))
}

// Insert adds p and reports whether it was new.
func (c *Client) Insert(ctx context.Context, p spatial.Point) (bool, error) {
	pt := fromSpatial(p)
	var reply MutationReply
	if err := c.invoke(ctx, InsertMethod, &PointRequest{Point: &pt}, &reply); err != nil {
		return false, err
	}
	return reply.Changed, nil
}

// Delete removes p and reports whether it was stored.
func (c *Client) Delete(ctx context.Context, p spatial.Point) (bool, error) {
	pt := fromSpatial(p)
	var reply MutationReply
	if err := c.invoke(ctx, DeleteMethod, &PointRequest{Point: &pt}, &reply); err != nil {
		return false, err
	}
	return reply.Changed, nil
}

// Search returns the points inside r.
func (c *Client) Search(ctx context.Context, r spatial.Rect) ([]spatial.Point, error) {
	lo, hi := fromSpatial(r.Min), fromSpatial(r.Max)
	var reply PointsReply
	if err := c.invoke(ctx, SearchMethod, &SearchRequest{Min: &lo, Max: &hi}, &reply); err != nil {
		return nil, err
	}
	return toPoints(reply.Points), nil
}

// Nearest returns up to k points nearest-first.
func (c *Client) Nearest(ctx context.Context, source spatial.Point, k int) ([]spatial.Point, error) {
	pt := fromSpatial(source)
	var reply PointsReply
	if err := c.invoke(ctx, NearestMethod, &NearestRequest{Point: &pt, K: int32(k)}, &reply); err != nil {
		return nil, err
	}
	return toPoints(reply.Points), nil
}

// Stats returns the server's index statistics.
func (c *Client) Stats(ctx context.Context) (*StatsReply, error) {
	var reply StatsReply
	if err := c.invoke(ctx, StatsMethod, &StatsRequest{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

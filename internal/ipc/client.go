package ipc

import (
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client talks to a running daemon over its Unix socket.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon socket at the given path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon socket %s: %w", path, err)
	}
	return &Client{rpc: jsonrpc.NewClient(conn)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) Start() (StartResponse, error) {
	var resp StartResponse
	err := c.rpc.Call("Booktrack.Start", StartRequest{}, &resp)
	return resp, err
}

func (c *Client) Stop() (StopResponse, error) {
	var resp StopResponse
	err := c.rpc.Call("Booktrack.Stop", StopRequest{}, &resp)
	return resp, err
}

func (c *Client) Status() (StatusResponse, error) {
	var resp StatusResponse
	err := c.rpc.Call("Booktrack.Status", StatusRequest{}, &resp)
	return resp, err
}

func (c *Client) ProjectList(req ProjectListRequest) (ProjectListResponse, error) {
	var resp ProjectListResponse
	err := c.rpc.Call("Booktrack.ProjectList", req, &resp)
	return resp, err
}

func (c *Client) ProjectUpdate(req ProjectUpdateRequest) (ProjectUpdateResponse, error) {
	var resp ProjectUpdateResponse
	err := c.rpc.Call("Booktrack.ProjectUpdate", req, &resp)
	return resp, err
}

func (c *Client) Week(req WeekRequest) (WeekResponse, error) {
	var resp WeekResponse
	err := c.rpc.Call("Booktrack.Week", req, &resp)
	return resp, err
}

func (c *Client) LogSet(req LogSetRequest) (LogSetResponse, error) {
	var resp LogSetResponse
	err := c.rpc.Call("Booktrack.LogSet", req, &resp)
	return resp, err
}

func (c *Client) LogDelete(req LogDeleteRequest) (LogDeleteResponse, error) {
	var resp LogDeleteResponse
	err := c.rpc.Call("Booktrack.LogDelete", req, &resp)
	return resp, err
}

func (c *Client) Report(req ReportRequest) (ReportResponse, error) {
	var resp ReportResponse
	err := c.rpc.Call("Booktrack.Report", req, &resp)
	return resp, err
}

func (c *Client) SyncNow() (SyncNowResponse, error) {
	var resp SyncNowResponse
	err := c.rpc.Call("Booktrack.SyncNow", SyncNowRequest{}, &resp)
	return resp, err
}

func (c *Client) TestNotification() (TestNotificationResponse, error) {
	var resp TestNotificationResponse
	err := c.rpc.Call("Booktrack.TestNotification", TestNotificationRequest{}, &resp)
	return resp, err
}

// Package grpcview sends requests to a gRPC backend as httpview messages,
// for services that expose an HTTP view of themselves over gRPC.
package grpcview

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/vizee/gapi-proto-go/gapi/httpview"
	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/internal/ioutil"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

type passthroughCodec struct{}

func (passthroughCodec) Marshal(v any) ([]byte, error) {
	return v.([]byte), nil
}

func (passthroughCodec) Unmarshal(data []byte, v any) error {
	// data is owned by the caller after Invoke returns
	*(v.(*[]byte)) = append([]byte(nil), data...)
	return nil
}

func (passthroughCodec) Name() string {
	return "passthrough"
}

type Client struct {
	conn   grpc.ClientConnInterface
	method string
	// MaxBodySize limits request bodies, zero means unlimited.
	MaxBodySize int64
}

var _ client.Client = &Client{}

// New returns a client invoking the full gRPC method name, e.g.
// "/gateway.HttpView/Call", on conn.
func New(conn grpc.ClientConnInterface, method string) *Client {
	return &Client{conn: conn, method: method}
}

func (c *Client) Execute(req *http.Request, opts client.Options) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = ioutil.ReadLimited(req.Body, req.ContentLength, c.MaxBodySize)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	headers := make(map[string]string, len(req.Header))
	for name, val := range req.Header {
		if len(val) > 0 {
			headers[name] = val[0]
		} else {
			headers[name] = ""
		}
	}
	reqData, err := proto.Marshal(&httpview.HttpRequest{
		Path:    req.URL.Path,
		Query:   req.URL.RawQuery,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	callctx := req.Context()
	var cancel func()
	if opts.ReadTimeout > 0 {
		callctx, cancel = context.WithTimeout(callctx, opts.ReadTimeout)
	}
	var respData []byte
	err = c.conn.Invoke(callctx, c.method, reqData, &respData, grpc.ForceCodec(passthroughCodec{}))
	if cancel != nil {
		cancel()
	}
	if err != nil {
		return nil, err
	}

	var r httpview.HttpResponse
	if err := proto.Unmarshal(respData, &r); err != nil {
		return nil, err
	}
	status := http.StatusOK
	if r.Status > 0 {
		status = int(r.Status)
	}
	resp := &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header, len(r.Headers)),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
	for k, v := range r.Headers {
		resp.Header.Set(k, v)
	}
	return resp, nil
}

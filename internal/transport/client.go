package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// DefaultTimeout applies when a request carries no timeout of its own.
const DefaultTimeout = 10 * time.Second

// Request is a fully resolved HTTP request.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Timeout time.Duration
}

// Response is a received HTTP response with its body already read.
type Response struct {
	Status  int
	Proto   string
	Header  http.Header
	Body    []byte
	Elapsed time.Duration // Time until the response headers arrived
}

// Client sends a request and waits for its response up to the request's timeout.
// Implementations return *TimeoutError when the deadline passes and
// *TransportError for every other failure to obtain a response.
type Client interface {
	Send(req *Request) (*Response, error)
}

// TimeoutError is returned when no response arrived within the timeout.
type TimeoutError struct {
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("response exceeded configured timeout of %d ms", e.Timeout.Milliseconds())
}

// TransportError wraps connection, DNS or protocol failures.
type TransportError struct {
	Err     error
	Elapsed time.Duration
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Options tune the underlying http.Transport.
type Options struct {
	Insecure bool // Skip TLS verification
	HTTP2    bool // Negotiate HTTP/2 via ALPN, falling back to HTTP/1.1
}

// HTTPClient is the net/http implementation of Client.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient builds a client. Timeouts are applied per request, not on the client.
func NewHTTPClient(opts Options) *HTTPClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.Insecure},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   opts.HTTP2,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if opts.HTTP2 {
		_ = http2.ConfigureTransport(transport) // Ignore error - fallback to HTTP/1.1
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				// Expectations are about the route itself, not where it redirects to.
				return http.ErrUseLastResponse
			},
		},
	}
}

// Send implements Client.
func (c *HTTPClient) Send(r *Request) (*Response, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	for k, values := range r.Header {
		// net/http ignores Header["Host"] on outgoing requests.
		if http.CanonicalHeaderKey(k) == "Host" {
			if len(values) > 0 {
				req.Host = values[0]
			}
			continue
		}
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{Timeout: timeout, Elapsed: elapsed}
		}
		return nil, &TransportError{Err: err, Elapsed: elapsed}
	}
	defer resp.Body.Close()

	// The deadline also covers reading the body.
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{Timeout: timeout, Elapsed: time.Since(start)}
		}
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err), Elapsed: elapsed}
	}

	return &Response{
		Status:  resp.StatusCode,
		Proto:   resp.Proto,
		Header:  resp.Header,
		Body:    bodyBytes,
		Elapsed: elapsed,
	}, nil
}

// isTimeout checks if the error is caused by the request deadline
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return os.IsTimeout(err)
}

package courier

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/courierapi/courier/internal/debug"
)

const (
	// DefaultTimeout bounds a single transport call end to end.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 10 << 20 // 10MB
)

// Transport issues the network call described by a descriptor and returns the
// raw result. Implementations perform status-code validation: a response
// outside 2xx is returned together with a non-nil error (a *StatusError for
// the default implementation) so the classifier can still inspect the body.
type Transport interface {
	Execute(ctx context.Context, d *Descriptor) (*RawResponse, error)
	ExecuteMultipart(ctx context.Context, d *Descriptor, files map[string]FormFile) (*RawResponse, error)
}

// HTTPTransport is the default Transport, backed by net/http.
type HTTPTransport struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) { t.client = client }
}

// WithTimeout sets the per-call timeout on the underlying client.
func WithTimeout(timeout time.Duration) TransportOption {
	return func(t *HTTPTransport) { t.client.Timeout = timeout }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) TransportOption {
	return func(t *HTTPTransport) { t.userAgent = ua }
}

// WithMaxBodySize caps how many response bytes are read.
func WithMaxBodySize(n int64) TransportOption {
	return func(t *HTTPTransport) { t.maxBodySize = n }
}

// NewHTTPTransport creates a transport with TLS 1.2+ enforced and sane
// connection defaults.
func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	t := &HTTPTransport{
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute issues the descriptor's call with plain parameter encoding: body
// parameters (when present) as a JSON request body, otherwise query
// parameters on the URL.
func (t *HTTPTransport) Execute(ctx context.Context, d *Descriptor) (*RawResponse, error) {
	var body []byte
	contentType := ""
	reqURL := d.URL()

	if d.HasBody() {
		encoded, err := json.Marshal(d.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = encoded
		contentType = "application/json"
	} else if q := encodeQuery(d.Query); q != "" {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL += sep + q
	}

	return t.roundTrip(ctx, d, reqURL, body, contentType)
}

// ExecuteMultipart issues the descriptor's call with a multipart/form-data
// body built from the file fields and the descriptor's effective parameters.
func (t *HTTPTransport) ExecuteMultipart(ctx context.Context, d *Descriptor, files map[string]FormFile) (*RawResponse, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if err := WriteMultipartBody(writer, d, files); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return t.roundTrip(ctx, d, d.URL(), buf.Bytes(), writer.FormDataContentType())
}

func (t *HTTPTransport) roundTrip(ctx context.Context, d *Descriptor, reqURL string, body []byte, contentType string) (*RawResponse, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", d.Method, "url", reqURL, "error", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete",
			"method", d.Method, "url", reqURL,
			"status", resp.StatusCode, "duration", time.Since(start))
	}

	raw := &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &StatusError{StatusCode: resp.StatusCode}
	}
	return raw, nil
}

// encodeQuery renders query parameters, expanding slice values into repeated
// "key[]" entries. Values whose string form is not valid UTF-8 are skipped,
// matching the multipart encoder.
func encodeQuery(params Params) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, key := range keys {
		elems, isSlice := sliceElements(params[key])
		if isSlice {
			for _, elem := range elems {
				if s, ok := stringifyParam(elem); ok {
					values.Add(key+"[]", s)
				}
			}
			continue
		}
		if s, ok := stringifyParam(params[key]); ok {
			values.Add(key, s)
		}
	}
	return values.Encode()
}

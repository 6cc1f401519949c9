package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-invoker/framework/dto"
)

const maxMemory = 32 << 20 // 32 MB

// ErrEmptyBody is returned by Bind for a JSON request without a body.
var ErrEmptyBody = errors.New("empty request body")

// Request wraps *http.Request with Laravel-style helpers.
//
// It is the "request" entry of an invocation pool. A Request belongs to one
// in-flight request and is not safe for concurrent use.
type Request struct {
	raw *http.Request

	body    []byte
	bodyErr error
	read    bool

	parsed   *dto.Record
	parseErr error
	isParsed bool
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Body ─────────────────────────────────────────────────────────────────────

// ParsedBody returns the body as an ordered record: JSON objects keep their
// field order, form bodies are sorted by field name. The body is parsed
// once; later calls return the same record.
func (req *Request) ParsedBody() (*dto.Record, error) {
	if req.isParsed {
		return req.parsed, req.parseErr
	}
	req.isParsed = true
	req.parsed, req.parseErr = req.parseBody()
	return req.parsed, req.parseErr
}

func (req *Request) parseBody() (*dto.Record, error) {
	if strings.Contains(req.ContentType(), "application/json") {
		raw, err := req.rawBody()
		if err != nil {
			return nil, err
		}
		rec := dto.NewRecord()
		if len(bytes.TrimSpace(raw)) == 0 {
			return rec, nil
		}
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	values, err := req.formValues()
	if err != nil {
		return nil, err
	}
	return recordOf(values), nil
}

func (req *Request) rawBody() ([]byte, error) {
	if req.read {
		return req.body, req.bodyErr
	}
	req.read = true
	if req.raw.Body == nil {
		return nil, nil
	}
	defer req.raw.Body.Close()
	req.body, req.bodyErr = io.ReadAll(req.raw.Body)
	// let later readers of the raw request see the body again
	req.raw.Body = io.NopCloser(bytes.NewReader(req.body))
	return req.body, req.bodyErr
}

func (req *Request) formValues() (url.Values, error) {
	if strings.Contains(req.ContentType(), "multipart/form-data") {
		if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
			return nil, err
		}
		return url.Values(req.raw.MultipartForm.Value), nil
	}
	if err := req.raw.ParseForm(); err != nil {
		return nil, err
	}
	return req.raw.PostForm, nil
}

func recordOf(values url.Values) *dto.Record {
	rec := dto.NewRecord()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		vals := values[k]
		if len(vals) == 1 {
			rec.Set(k, vals[0])
		} else {
			rec.Set(k, vals)
		}
	}
	return rec
}

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the request body into v.
// Supports JSON and application/x-www-form-urlencoded / multipart.
// JSON fields map via `json:"name"`, form fields go through the same tags.
func (req *Request) Bind(v any) error {
	if strings.Contains(req.ContentType(), "application/json") {
		raw, err := req.rawBody()
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return ErrEmptyBody
		}
		return json.Unmarshal(raw, v)
	}

	body, err := req.ParsedBody()
	if err != nil {
		return err
	}
	// JSON round-trip: keeps nested structs working through json tags
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Input returns a single input value (query string OR post body).
func (req *Request) Input(key string, fallback ...string) string {
	_ = req.raw.ParseForm()
	v := req.raw.FormValue(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// All returns all input as a flat map (query + post).
func (req *Request) All() map[string]string {
	_ = req.raw.ParseForm()
	out := make(map[string]string)
	for k, v := range req.raw.Form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Has returns true if the key is present and non-empty.
func (req *Request) Has(key string) bool {
	return req.Input(key) != ""
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Attribute returns a request attribute set with WithAttribute.
func (req *Request) Attribute(key string) (any, bool) {
	v, ok := Attributes(req.raw)[key]
	return v, ok
}

// Attributes returns every request attribute.
func (req *Request) Attributes() map[string]any {
	return Attributes(req.raw)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	auth := req.raw.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// IP returns the client IP (respects RealIP middleware).
func (req *Request) IP() string {
	return req.raw.RemoteAddr
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}

// IsJSON returns true when the request expects a JSON response.
func (req *Request) IsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.ContentType(), "application/json")
}

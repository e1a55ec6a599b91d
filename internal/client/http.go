package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// HTTPClient implements DatedValuesClient using the HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Value types ---

func (c *HTTPClient) CreateType(ctx context.Context, req *CreateTypeRequest) (*model.ValueType, error) {
	var vt model.ValueType
	if err := c.doJSON(ctx, http.MethodPost, "/v1/types", req, &vt); err != nil {
		return nil, err
	}
	return &vt, nil
}

func (c *HTTPClient) ListTypes(ctx context.Context, req *ListTypesRequest) ([]*model.ValueType, error) {
	q := url.Values{}
	if req.ObjectKind != "" {
		q.Set("object_kind", req.ObjectKind)
	}
	if len(req.Slugs) > 0 {
		q.Set("slugs", strings.Join(req.Slugs, ","))
	}

	var resp struct {
		Types []*model.ValueType `json:"types"`
	}
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/v1/types", q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Types, nil
}

func (c *HTTPClient) UpdateType(ctx context.Context, id int64, req *UpdateTypeRequest) (*model.ValueType, error) {
	var vt model.ValueType
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/types/"+strconv.FormatInt(id, 10), req, &vt); err != nil {
		return nil, err
	}
	return &vt, nil
}

func (c *HTTPClient) DeleteType(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/types/"+strconv.FormatInt(id, 10), nil, nil)
}

// --- Dated values ---

func (c *HTTPClient) CreateValue(ctx context.Context, req *CreateValueRequest) (*model.DatedValue, error) {
	var v model.DatedValue
	if err := c.doJSON(ctx, http.MethodPost, "/v1/values", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) ListValues(ctx context.Context, req *ListValuesRequest) (*ListValuesResponse, error) {
	q := url.Values{}
	if len(req.TypeIDs) > 0 {
		ids := make([]string, len(req.TypeIDs))
		for i, id := range req.TypeIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		q.Set("type_id", strings.Join(ids, ","))
	}
	if req.ObjectID != "" {
		q.Set("object_id", req.ObjectID)
	}
	if req.From != "" {
		q.Set("from", req.From)
	}
	if req.To != "" {
		q.Set("to", req.To)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	var resp ListValuesResponse
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/v1/values", q), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteValue(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/values/"+strconv.FormatInt(id, 10), nil, nil)
}

// --- Editor ---

func editorPath(req *EditorRequest) string {
	q := url.Values{}
	if len(req.Types) > 0 {
		q.Set("types", strings.Join(req.Types, ","))
	}
	if req.Start != "" {
		q.Set("start", req.Start)
	}
	if req.Days > 0 {
		q.Set("days", strconv.Itoa(req.Days))
	}
	path := "/v1/objects/" + url.PathEscape(req.ObjectKind) + "/" + url.PathEscape(req.ObjectID) + "/values"
	return withQuery(path, q)
}

func (c *HTTPClient) GetEditor(ctx context.Context, req *EditorRequest) (*Editor, error) {
	var e Editor
	if err := c.doJSON(ctx, http.MethodGet, editorPath(req), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveEditor submits field keys to raw input; a nil value submits a blank.
// A rejected submission returns an *APIError with status 422 and Fields set.
func (c *HTTPClient) SaveEditor(ctx context.Context, req *EditorRequest, data map[string]*string) (*Editor, error) {
	var e Editor
	if err := c.doJSON(ctx, http.MethodPost, editorPath(req), data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// --- Admin ---

// Export streams the server's JSONL backup into w.
func (c *HTTPClient) Export(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/export", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return 0, apiError(resp.StatusCode, body)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("reading export: %w", err)
	}
	return n, nil
}

func (c *HTTPClient) Settings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.doJSON(ctx, http.MethodGet, "/v1/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- internal helpers ---

// APIError represents an error response from the server. Fields carries the
// per-field messages of a rejected submission.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []model.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func apiError(status int, body []byte) *APIError {
	var errResp struct {
		Error  string             `json:"error"`
		Fields []model.FieldError `json:"fields"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		fields := errResp.Fields
		if fields == nil {
			// Validation failures on direct writes carry "errors" instead.
			var ve model.ValidationError
			if json.Unmarshal(body, &ve) == nil {
				fields = ve.Errors
			}
		}
		return &APIError{StatusCode: status, Message: errResp.Error, Fields: fields}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// do sends a request with an optional JSON body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	return resp, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// Package client talks to a dms server over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/totegamma/dms/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "dms-client/1.0"
)

// StatusError is returned for every non-2xx answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dms: %d %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
}

// New returns a client for the server at baseURL (e.g. http://localhost:8000).
// Associated user lists are cached for a short while and dropped on any
// write to the same document.
func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:  &httpClient,
		cache:   cache.New(30*time.Second, time.Minute),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return nil, &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}
	return resp, nil
}

func (c *Client) request(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

type detail struct {
	Detail string `json:"detail"`
}

func (c *Client) detail(ctx context.Context, method, path string, in any) (string, error) {
	var d detail
	err := c.request(ctx, method, path, in, &d)
	return d.Detail, err
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out struct {
		Users []domain.User `json:"users"`
	}
	err := c.request(ctx, http.MethodGet, "/users", nil, &out)
	return out.Users, err
}

func (c *Client) ImportUsers(ctx context.Context, users []domain.NewUser) ([]domain.User, error) {
	var out struct {
		Users []domain.User `json:"users"`
	}
	in := map[string]any{"List_Of_User": users}
	err := c.request(ctx, http.MethodPost, "/users/add", in, &out)
	return out.Users, err
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	var user domain.User
	in := map[string]string{"email": email, "password": password}
	err := c.request(ctx, http.MethodPost, "/login", in, &user)
	return user, err
}

// Upload sends data as a multipart file and returns the new document id.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", errors.Wrap(err, "failed to create form file")
	}
	if _, err := part.Write(data); err != nil {
		return "", errors.Wrap(err, "failed to write form file")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close multipart writer")
	}

	resp, err := c.do(ctx, http.MethodPost, "/files/upload", &buf, w.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}
	return out.DocumentID, nil
}

func (c *Client) ListFiles(ctx context.Context) ([]domain.Document, error) {
	var out struct {
		Files []domain.Document `json:"files"`
	}
	err := c.request(ctx, http.MethodGet, "/files", nil, &out)
	return out.Files, err
}

// Download returns the file contents. The caller closes the reader.
func (c *Client) Download(ctx context.Context, documentID string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, "/files/"+url.PathEscape(documentID)+"/download", nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) DeleteFile(ctx context.Context, filename string) (string, error) {
	return c.detail(ctx, http.MethodDelete, "/files/delete/"+url.PathEscape(filename), nil)
}

// Associate puts userID on the document's chain. A priority of 0 lets the
// server pick the next free slot.
func (c *Client) Associate(ctx context.Context, documentID, userID string, priority int) (string, error) {
	c.cache.Delete(documentID)
	path := "/associate/" + url.PathEscape(documentID) + "/" + url.PathEscape(userID)
	if priority != 0 {
		path += "?priority=" + strconv.Itoa(priority)
	}
	return c.detail(ctx, http.MethodPost, path, nil)
}

func (c *Client) SetStatus(ctx context.Context, documentID, userID string, status domain.ApprovalStatus) (string, error) {
	c.cache.Delete(documentID)
	path := "/status/" + url.PathEscape(documentID) + "/" + url.PathEscape(userID)
	return c.detail(ctx, http.MethodPut, path, map[string]any{"approval_status": status})
}

func (c *Client) Disassociate(ctx context.Context, documentID, userID string) (string, error) {
	c.cache.Delete(documentID)
	path := "/disassociate/" + url.PathEscape(documentID) + "/" + url.PathEscape(userID)
	return c.detail(ctx, http.MethodDelete, path, nil)
}

func (c *Client) AssociatedUsers(ctx context.Context, documentID string) ([]domain.AssociatedUser, error) {
	if x, found := c.cache.Get(documentID); found {
		return x.([]domain.AssociatedUser), nil
	}

	var out struct {
		Users []domain.AssociatedUser `json:"associated_users"`
	}
	err := c.request(ctx, http.MethodGet, "/associated_users/"+url.PathEscape(documentID), nil, &out)
	if err != nil {
		return nil, err
	}

	c.cache.Set(documentID, out.Users, cache.DefaultExpiration)
	return out.Users, nil
}

func (c *Client) AssociatedDocuments(ctx context.Context, userID string) ([]domain.VisibleDocument, error) {
	var out struct {
		Documents []domain.VisibleDocument `json:"associated_documents"`
	}
	err := c.request(ctx, http.MethodGet, "/associated_documents/"+url.PathEscape(userID), nil, &out)
	return out.Documents, err
}

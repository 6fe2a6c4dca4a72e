// Package api is the HTTP client for the album server. Problem responses
// come back as the same domain error types the server raised.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"album/internal/domain"
	models "album/internal/domain/models/album"
)

// DefaultTimeout bounds every request so no call blocks indefinitely
const DefaultTimeout = 30 * time.Second

// Config configures a Client
type Config struct {
	BaseURL string
	Token   string        // bearer token, empty in dev mode
	Timeout time.Duration // 0 = DefaultTimeout
}

// Client talks to the album HTTP API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the server at cfg.BaseURL
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// ListFolders returns the caller's folder forest
func (c *Client) ListFolders(ctx context.Context) ([]*models.FolderTreeNode, error) {
	var forest []*models.FolderTreeNode
	err := c.doJSON(ctx, http.MethodGet, "/api/folders", nil, &forest)
	return forest, err
}

// CreateFolder creates name below parentID
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error) {
	var folder models.Folder
	body := map[string]any{"name": name, "parent_id": parentID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/folders", body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder changes a folder's name
func (c *Client) RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error) {
	var folder models.Folder
	body := map[string]any{"name": name}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/folders/"+url.PathEscape(folderID), body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// MoveFolder reparents a folder
func (c *Client) MoveFolder(ctx context.Context, folderID, parentID string) (*models.Folder, error) {
	var folder models.Folder
	body := map[string]any{"parent_id": parentID}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/folders/"+url.PathEscape(folderID)+"/move", body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder deletes a folder subtree
func (c *Client) DeleteFolder(ctx context.Context, folderID string) (*models.DeleteResult, error) {
	var result models.DeleteResult
	if err := c.doJSON(ctx, http.MethodDelete, "/api/folders/"+url.PathEscape(folderID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListItems fetches one server-side page
func (c *Client) ListItems(ctx context.Context, folderID *string, filter string, page, pageSize int) (*models.ItemPage, error) {
	q := itemQuery(folderID, filter)
	q.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var result models.ItemPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/items?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllItems fetches every matching item for client-side windowing
func (c *Client) ListAllItems(ctx context.Context, folderID *string, filter string) ([]models.Item, error) {
	path := "/api/items/all"
	if q := itemQuery(folderID, filter); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var items []models.Item
	err := c.doJSON(ctx, http.MethodGet, path, nil, &items)
	return items, err
}

// UploadItem sends a photo as a multipart form
func (c *Client) UploadItem(ctx context.Context, folderID, title, fileName string, content io.Reader) (*models.Item, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("folder_id", folderID); err != nil {
		return nil, err
	}
	if err := mw.WriteField("title", title); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("photo", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var item models.Item
	if err := c.do(ctx, http.MethodPost, "/api/items", &buf, mw.FormDataContentType(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RenameItem changes an item's title
func (c *Client) RenameItem(ctx context.Context, itemID, title string) (*models.Item, error) {
	var item models.Item
	body := map[string]any{"title": title}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/items/"+url.PathEscape(itemID), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// MoveItem reassigns an item to folderID
func (c *Client) MoveItem(ctx context.Context, itemID, folderID string) (*models.Item, error) {
	var item models.Item
	body := map[string]any{"folder_id": folderID}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/items/"+url.PathEscape(itemID)+"/move", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem deletes an item
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(itemID), nil, nil)
}

func itemQuery(folderID *string, filter string) url.Values {
	q := url.Values{}
	if folderID != nil {
		q.Set("folder_id", *folderID)
	}
	if filter != "" {
		q.Set("filter", filter)
	}
	return q
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.DependencyError{Dependency: "transport", Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.DependencyError{Dependency: "transport", Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// problem is the subset of an RFC 7807 body the client reads
type problem struct {
	Status       int    `json:"status"`
	Detail       string `json:"detail"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

// decodeError turns an error response into the matching domain error
func decodeError(resp *http.Response) error {
	var p problem
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &p); err != nil || p.Detail == "" {
		p.Detail = strings.TrimSpace(string(raw))
		if p.Detail == "" {
			p.Detail = http.StatusText(resp.StatusCode)
		}
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return &domain.ValidationError{Message: p.Detail}
	case http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: p.Detail}
	case http.StatusNotFound:
		return &domain.NotFoundError{Message: p.Detail}
	case http.StatusConflict:
		return &domain.ConflictError{Message: p.Detail, ResourceType: p.ResourceType, ResourceID: p.ResourceID}
	default:
		return &domain.DependencyError{
			Dependency: "transport",
			Err:        fmt.Errorf("server returned %d: %s", resp.StatusCode, p.Detail),
		}
	}
}

// IsTransportFailure reports whether err came from the transport rather
// than from a decision of the server
func IsTransportFailure(err error) bool {
	var dep *domain.DependencyError
	return errors.As(err, &dep) && dep.Dependency == "transport"
}

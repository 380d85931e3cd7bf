package array

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

const filesystemsPath = "/api/file-systems"

// CreateFileSystem creates a filesystem. The array answers with the
// created resource.
func (c *Client) CreateFileSystem(ctx context.Context, fs FileSystem) (*FileSystem, error) {
	var out listResponse[FileSystem]
	if err := c.do(ctx, http.MethodPost, filesystemsPath, nil, fs, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, errors.NewError(errors.ErrCodeTransportError, "array returned no filesystem on create")
	}
	return &out.Items[0], nil
}

// GetFileSystem fetches one filesystem by array name, including its space
// accounting. A missing filesystem is a typed NotFound.
func (c *Client) GetFileSystem(ctx context.Context, name string) (*FileSystem, error) {
	query := url.Values{"names": {name}}
	var out listResponse[FileSystem]
	if err := c.do(ctx, http.MethodGet, filesystemsPath, query, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, errors.Newf(errors.ErrCodeNotFound, "filesystem %q not found on array", name).
			WithComponent("array").WithOperation("get_filesystem")
	}
	return &out.Items[0], nil
}

// UpdateFileSystem patches a filesystem in place.
func (c *Client) UpdateFileSystem(ctx context.Context, name string, patch FileSystemPatch) (*FileSystem, error) {
	query := url.Values{"names": {name}}
	var out listResponse[FileSystem]
	if err := c.do(ctx, http.MethodPatch, filesystemsPath, query, patch, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, errors.Newf(errors.ErrCodeNotFound, "filesystem %q not found on array", name).
			WithComponent("array").WithOperation("update_filesystem")
	}
	return &out.Items[0], nil
}

// EradicateFileSystem permanently removes a destroyed filesystem. The
// filesystem must already be in the pending-eradication state.
func (c *Client) EradicateFileSystem(ctx context.Context, name string) error {
	query := url.Values{"names": {name}}
	return c.do(ctx, http.MethodDelete, filesystemsPath, query, nil, nil)
}

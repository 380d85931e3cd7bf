package array

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

const snapshotsPath = "/api/file-system-snapshots"

// CreateSnapshot snapshots the source filesystem under the given suffix.
func (c *Client) CreateSnapshot(ctx context.Context, source, suffix string) (*FileSystemSnapshot, error) {
	body := struct {
		Sources []string `json:"sources"`
		Suffix  string   `json:"suffix"`
	}{
		Sources: []string{source},
		Suffix:  suffix,
	}
	var out listResponse[FileSystemSnapshot]
	if err := c.do(ctx, http.MethodPost, snapshotsPath, nil, body, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, errors.NewError(errors.ErrCodeTransportError, "array returned no snapshot on create")
	}
	return &out.Items[0], nil
}

// GetSnapshot fetches one snapshot by its array name ("<source>.<suffix>").
func (c *Client) GetSnapshot(ctx context.Context, name string) (*FileSystemSnapshot, error) {
	query := url.Values{"names": {name}}
	var out listResponse[FileSystemSnapshot]
	if err := c.do(ctx, http.MethodGet, snapshotsPath, query, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, errors.Newf(errors.ErrCodeNotFound, "snapshot %q not found on array", name).
			WithComponent("array").WithOperation("get_snapshot")
	}
	return &out.Items[0], nil
}

// DestroySnapshot moves a snapshot into the pending-eradication state.
func (c *Client) DestroySnapshot(ctx context.Context, name string) error {
	destroyed := true
	body := struct {
		Destroyed *bool `json:"destroyed"`
	}{Destroyed: &destroyed}
	query := url.Values{"names": {name}}
	return c.do(ctx, http.MethodPatch, snapshotsPath, query, body, nil)
}

// EradicateSnapshot permanently removes a destroyed snapshot.
func (c *Client) EradicateSnapshot(ctx context.Context, name string) error {
	query := url.Values{"names": {name}}
	return c.do(ctx, http.MethodDelete, snapshotsPath, query, nil, nil)
}

// RestoreSnapshot rolls the snapshot's source filesystem back to the
// snapshot's point in time. The array refuses with a busy error while a
// conflicting operation runs.
func (c *Client) RestoreSnapshot(ctx context.Context, name string) error {
	query := url.Values{"names": {name}}
	return c.do(ctx, http.MethodPost, snapshotsPath+"/restore", query, nil, nil)
}

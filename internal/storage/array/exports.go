package array

import (
	"context"
	"net/http"
	"net/url"
)

const exportRulesPath = "/api/export-rules"

// ListExportRules returns the live access rules of a filesystem for one
// protocol.
func (c *Client) ListExportRules(ctx context.Context, filesystem string, protocol ExportProtocol) ([]ExportRule, error) {
	query := url.Values{
		"file_system_names": {filesystem},
		"protocols":         {string(protocol)},
	}
	var out listResponse[ExportRule]
	if err := c.do(ctx, http.MethodGet, exportRulesPath, query, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AddExportRule adds one access rule to a filesystem export. Adding a rule
// that is already present is accepted by the array.
func (c *Client) AddExportRule(ctx context.Context, filesystem string, rule ExportRule) error {
	query := url.Values{"file_system_names": {filesystem}}
	return c.do(ctx, http.MethodPost, exportRulesPath, query, rule, nil)
}

// RemoveExportRule removes one access rule from a filesystem export.
// Removing an absent rule is accepted by the array.
func (c *Client) RemoveExportRule(ctx context.Context, filesystem string, rule ExportRule) error {
	query := url.Values{"file_system_names": {filesystem}}
	return c.do(ctx, http.MethodDelete, exportRulesPath, query, rule, nil)
}

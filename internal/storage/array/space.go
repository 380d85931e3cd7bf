package array

import (
	"context"
	"net/http"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

const arraysSpacePath = "/api/arrays/space"

// GetArraySpace fetches the array-wide capacity and reduction telemetry.
func (c *Client) GetArraySpace(ctx context.Context) (*ArraySpace, error) {
	var out listResponse[ArraySpace]
	if err := c.do(ctx, http.MethodGet, arraysSpacePath, nil, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, errors.NewError(errors.ErrCodeTransportError, "array returned no space report")
	}
	return &out.Items[0], nil
}

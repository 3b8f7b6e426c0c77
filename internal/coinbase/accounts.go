package coinbase

import (
	"context"

	"github.com/pkg/errors"
)

// ListAccounts fetches every account of the authenticated user, following
// pagination to exhaustion.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	path := "/v2/accounts?limit=100"

	var accounts []Account
	for path != "" {
		var resp accountsResponse
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, errors.Wrap(err, "list accounts")
		}

		accounts = append(accounts, resp.Data...)
		path = resp.Pagination.NextURI
	}

	return accounts, nil
}

// GetAccount fetches a single account by id.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var resp accountResponse
	if err := c.get(ctx, "/v2/accounts/"+accountID, &resp); err != nil {
		return nil, errors.Wrapf(err, "get account %s", accountID)
	}

	return &resp.Data, nil
}

package coinbase

// Money amount plus currency code. Amounts are decimal strings.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Account one Coinbase account record.
type Account struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Primary       bool   `json:"primary"`
	Type          string `json:"type"`
	Balance       Money  `json:"balance"`
	NativeBalance Money  `json:"native_balance"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	Resource      string `json:"resource"`
	ResourcePath  string `json:"resource_path"`
}

// pagination cursor block attached to list responses. NextURI is a
// ready-to-use path with query, empty on the last page.
type pagination struct {
	NextURI string `json:"next_uri"`
}

type accountsResponse struct {
	Pagination pagination `json:"pagination"`
	Data       []Account  `json:"data"`
}

type accountResponse struct {
	Data Account `json:"data"`
}

type errorsResponse struct {
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

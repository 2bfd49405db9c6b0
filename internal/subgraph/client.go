// Package subgraph queries the loan indexer's GraphQL endpoint.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nftpawnshop/backend/internal/model"
)

const pageSize = 1000

const loanFields = `
	id
	loanAssetContractAddress
	collateralContractAddress
	collateralTokenId
	collateralName
	perSecondInterestRate
	accumulatedInterest
	lastAccumulatedTimestamp
	durationSeconds
	loanAmount
	status
	closed
	loanAssetDecimal
	loanAssetSymbol
	lendTicketHolder
	borrowTicketHolder
	endDateTimestamp`

const loansExpiringWithinQuery = `
query LoansExpiringWithin($start: BigInt!, $end: BigInt!, $first: Int!, $skip: Int!) {
  loans(
    where: { closed: false, endDateTimestamp_gte: $start, endDateTimestamp_lte: $end }
    orderBy: endDateTimestamp
    orderDirection: asc
    first: $first
    skip: $skip
  ) {` + loanFields + `
  }
}`

const mostRecentTermsQuery = `
query MostRecentTermsForLoan($loan: String!, $before: BigInt!) {
  lendEvents(
    where: { loan: $loan, timestamp_lt: $before }
    orderBy: timestamp
    orderDirection: desc
    first: 1
  ) {
    id
    timestamp
    lender
    loanAmount
    perSecondInterestRate
    durationSeconds
  }
}`

// Config holds subgraph client settings.
type Config struct {
	URL             string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
}

// DefaultConfig returns default client settings for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		Timeout:         15 * time.Second,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Client is a minimal GraphQL client for the loan subgraph.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a subgraph client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// LoansExpiringWithin returns open loans whose end date falls in [start, end].
func (c *Client) LoansExpiringWithin(ctx context.Context, start, end int64) ([]model.RawLoan, error) {
	var loans []model.RawLoan
	for skip := 0; ; skip += pageSize {
		var data struct {
			Loans []model.RawLoan `json:"loans"`
		}
		vars := map[string]any{
			"start": strconv.FormatInt(start, 10),
			"end":   strconv.FormatInt(end, 10),
			"first": pageSize,
			"skip":  skip,
		}
		if err := c.query(ctx, loansExpiringWithinQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("loans expiring within [%d, %d]: %w", start, end, err)
		}
		loans = append(loans, data.Loans...)
		if len(data.Loans) < pageSize {
			return loans, nil
		}
	}
}

type lendEventRow struct {
	ID                    string        `json:"id"`
	Timestamp             model.Numeric `json:"timestamp"`
	Lender                string        `json:"lender"`
	LoanAmount            model.Numeric `json:"loanAmount"`
	PerSecondInterestRate model.Numeric `json:"perSecondInterestRate"`
	DurationSeconds       model.Numeric `json:"durationSeconds"`
}

// MostRecentTermsForLoan returns the latest LendEvent for loanID strictly
// before the given timestamp, or nil if the loan had none.
func (c *Client) MostRecentTermsForLoan(ctx context.Context, loanID string, before int64) (*model.TermsEvent, error) {
	var data struct {
		LendEvents []lendEventRow `json:"lendEvents"`
	}
	vars := map[string]any{
		"loan":   loanID,
		"before": strconv.FormatInt(before, 10),
	}
	if err := c.query(ctx, mostRecentTermsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("most recent terms for loan %s: %w", loanID, err)
	}
	if len(data.LendEvents) == 0 {
		return nil, nil
	}

	row := data.LendEvents[0]
	ts, err := strconv.ParseInt(string(row.Timestamp), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("lend event %s: invalid timestamp %q", row.ID, row.Timestamp)
	}
	return &model.TermsEvent{
		ID:                    row.ID,
		Timestamp:             ts,
		Lender:                row.Lender,
		LoanAmount:            row.LoanAmount,
		PerSecondInterestRate: row.PerSecondInterestRate,
		DurationSeconds:       row.DurationSeconds,
	}, nil
}

// query posts a GraphQL request, retrying transport failures and 5xx responses.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var resp graphQLResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("subgraph returned status %d", res.StatusCode)
		}
		if res.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
			return backoff.Permanent(fmt.Errorf("subgraph returned status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet))))
		}

		resp = graphQLResponse{}
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialInterval
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.MaxRetries), ctx)); err != nil {
		return err
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return errors.New("graphql: " + strings.Join(msgs, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return errors.New("graphql: empty data")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

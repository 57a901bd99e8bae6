// ABOUTME: PubChem PUG-REST client implementing compound.Service
// ABOUTME: Rate limited, per-call timeouts, and uniform NotFound/Unavailable classification

package pubchem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/2389/chembot/internal/compound"
)

const (
	// DefaultBaseURL is the public PUG-REST endpoint.
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

	// DefaultViewURL is the prefix of the human-facing compound page.
	DefaultViewURL = "https://pubchem.ncbi.nlm.nih.gov/compound"

	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond matches PubChem's published usage policy.
	DefaultRequestsPerSecond = 5

	// DefaultSimilarityThreshold is the Tanimoto threshold (percent) for 2D similarity.
	DefaultSimilarityThreshold = 90

	// DefaultRandomMaxCID bounds the identifier range random draws come from.
	DefaultRandomMaxCID = 200000

	// DefaultRandomAttempts is how many draws Random makes before giving up.
	DefaultRandomAttempts = 5

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 8 << 20
)

// Config configures a Client. Zero fields take the package defaults.
type Config struct {
	BaseURL             string
	ViewURL             string
	Timeout             time.Duration
	RequestsPerSecond   float64
	SimilarityThreshold int
	RandomMaxCID        int64
	RandomAttempts      int
}

// Client talks to PubChem over HTTP.
type Client struct {
	baseURL   string
	viewURL   string
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	threshold int
	randomMax int64
	attempts  int
	randN     func(n int64) int64
	logger    *slog.Logger
}

// Ensure Client implements compound.Service.
var _ compound.Service = (*Client)(nil)

// NewClient creates a PubChem client. Pass nil logger for default.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ViewURL == "" {
		cfg.ViewURL = DefaultViewURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.RandomMaxCID <= 0 {
		cfg.RandomMaxCID = DefaultRandomMaxCID
	}
	if cfg.RandomAttempts <= 0 {
		cfg.RandomAttempts = DefaultRandomAttempts
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		viewURL:   strings.TrimSuffix(cfg.ViewURL, "/"),
		client:    &http.Client{},
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   cfg.Timeout,
		threshold: cfg.SimilarityThreshold,
		randomMax: cfg.RandomMaxCID,
		attempts:  cfg.RandomAttempts,
		randN:     rand.Int64N,
		logger:    logger.With("component", "pubchem"),
	}
}

// ResolveByName looks up the first CID matching term and fetches its record.
// The record's display name is the term as entered.
func (c *Client) ResolveByName(ctx context.Context, term string) (compound.Record, error) {
	const op = "resolve_name"
	term = strings.TrimSpace(term)
	if term == "" {
		return compound.Record{}, compound.NotFound(op, term)
	}

	body, err := c.get(ctx, op, term, "/compound/name/"+url.PathEscape(term)+"/cids/JSON", nil)
	if err != nil {
		return compound.Record{}, err
	}
	ids, err := parseIdentifierList(body)
	if err != nil {
		return compound.Record{}, compound.Unavailable(op, term, err)
	}
	if len(ids) == 0 {
		return compound.Record{}, compound.NotFound(op, term)
	}

	rec, err := c.fetchRecord(ctx, op, term, ids[0])
	if err != nil {
		return compound.Record{}, err
	}
	rec.DisplayName = term
	return rec, nil
}

// ResolveByID fetches the record for id. The display name is the IUPAC
// name, or "CID <id>" when PubChem has none.
func (c *Client) ResolveByID(ctx context.Context, id compound.CID) (compound.Record, error) {
	return c.fetchRecord(ctx, "resolve_id", id.String(), id)
}

// Random draws identifiers uniformly from [1, RandomMaxCID] until one
// resolves. PubChem has no random endpoint, and some identifiers in the
// range are retired, so NotFound draws are retried.
func (c *Client) Random(ctx context.Context) (compound.Record, error) {
	const op = "random"
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		id := compound.CID(1 + c.randN(c.randomMax))
		rec, err := c.ResolveByID(ctx, id)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		if !errors.Is(err, compound.ErrNotFound) {
			break
		}
		c.logger.Debug("random draw missed", "cid", id, "attempt", attempt+1)
	}
	return compound.Record{}, compound.Unavailable(op, "", lastErr)
}

// Similar returns up to limit identifiers from a 2D fingerprint similarity
// search, in PubChem's ranking order, excluding id itself.
func (c *Client) Similar(ctx context.Context, id compound.CID, limit int) ([]compound.CID, error) {
	const op = "similar"
	if limit <= 0 {
		return nil, &compound.LookupError{Op: op, Term: id.String(), Kind: compound.ErrInvalidInput,
			Err: fmt.Errorf("limit must be positive, got %d", limit)}
	}

	query := url.Values{}
	query.Set("Threshold", strconv.Itoa(c.threshold))
	// One extra record because PubChem ranks the query compound first.
	query.Set("MaxRecords", strconv.Itoa(limit+1))

	body, err := c.get(ctx, op, id.String(), "/compound/fastsimilarity_2d/cid/"+id.String()+"/cids/JSON", query)
	if err != nil {
		return nil, err
	}
	ids, err := parseIdentifierList(body)
	if err != nil {
		return nil, compound.Unavailable(op, id.String(), err)
	}

	out := make([]compound.CID, 0, limit)
	for _, cid := range ids {
		if cid == id {
			continue
		}
		out = append(out, cid)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// fetchRecord loads and parses the full record for id.
func (c *Client) fetchRecord(ctx context.Context, op, term string, id compound.CID) (compound.Record, error) {
	body, err := c.get(ctx, op, term, "/compound/cid/"+id.String()+"/JSON", nil)
	if err != nil {
		return compound.Record{}, err
	}
	rec, err := parseRecord(body, id)
	if err != nil {
		return compound.Record{}, compound.Unavailable(op, term, err)
	}
	rec.ImageURL = c.ImageURL(rec.ID)
	rec.ViewURL = c.viewURL + "/" + rec.ID.String()
	return rec, nil
}

// ImageURL returns the PNG depiction URL for id.
func (c *Client) ImageURL(id compound.CID) string {
	return c.baseURL + "/compound/cid/" + id.String() + "/PNG"
}

// get performs a rate-limited GET with the client timeout and classifies the outcome.
func (c *Client) get(ctx context.Context, op, term, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, compound.Unavailable(op, term, fmt.Errorf("waiting for rate limiter: %w", err))
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, compound.Unavailable(op, term, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, compound.Unavailable(op, term, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, compound.Unavailable(op, term, fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("pubchem request",
		"op", op,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, compound.NotFound(op, term)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, compound.Unavailable(op, term, statusError(resp.StatusCode, body))
	case !gjson.ValidBytes(body):
		return nil, compound.Unavailable(op, term, errors.New("response is not valid JSON"))
	}
	return body, nil
}

// statusError extracts the PUG fault message from a non-success response.
func statusError(status int, body []byte) error {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "Fault.Message").String(); msg != "" {
			return fmt.Errorf("pubchem returned status %d: %s", status, msg)
		}
	}
	return fmt.Errorf("pubchem returned status %d", status)
}

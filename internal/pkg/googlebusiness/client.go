package googlebusiness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/reviewpilot/ReviewPilot/internal/pkg/env"
)

const (
	defaultAccountsAPIBaseURL = "https://mybusinessaccountmanagement.googleapis.com/v1"
	defaultInfoAPIBaseURL     = "https://mybusinessbusinessinformation.googleapis.com/v1"
	defaultReviewsAPIBaseURL  = "https://mybusiness.googleapis.com/v4"
	defaultTokenURL           = "https://oauth2.googleapis.com/token"
)

// Credentials is one user's stored Google Business Profile OAuth grant.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Client wraps the Google Business Profile APIs with a single user's
// credential. All calls refresh the access token first when it is expired
// and a refresh token is available; a failed refresh surfaces as
// ErrAuthExpired so the caller can ask the user to reconnect.
type Client struct {
	creds Credentials

	ClientID     string
	ClientSecret string

	AccountsAPIBaseURL string
	InfoAPIBaseURL     string
	ReviewsAPIBaseURL  string
	TokenURL           string

	HTTPClient *http.Client

	// OnTokenRefresh is called after a successful refresh so the caller can
	// persist the new access token.
	OnTokenRefresh func(accessToken string, expiresAt time.Time)
}

// NewClient builds a client for the given credentials using env configuration.
func NewClient(creds Credentials) *Client {
	return &Client{
		creds:              creds,
		ClientID:           strings.TrimSpace(env.GetEnv("GOOGLE_KEY", "")),
		ClientSecret:       strings.TrimSpace(env.GetEnv("GOOGLE_SECRET", "")),
		AccountsAPIBaseURL: strings.TrimSpace(env.GetEnv("GBP_ACCOUNTS_API_BASE_URL", defaultAccountsAPIBaseURL)),
		InfoAPIBaseURL:     strings.TrimSpace(env.GetEnv("GBP_INFO_API_BASE_URL", defaultInfoAPIBaseURL)),
		ReviewsAPIBaseURL:  strings.TrimSpace(env.GetEnv("GBP_REVIEWS_API_BASE_URL", defaultReviewsAPIBaseURL)),
		TokenURL:           strings.TrimSpace(env.GetEnv("GOOGLE_TOKEN_URL", defaultTokenURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Account is one Google Business Profile account visible to the user.
type Account struct {
	Name        string `json:"name"`
	AccountName string `json:"accountName"`
	Type        string `json:"type"`
}

// Location is one business location under an account.
type Location struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Address struct {
		AddressLines []string `json:"addressLines"`
		Locality     string   `json:"locality"`
	} `json:"storefrontAddress"`
}

// RawReview is a review as returned by the review listing API.
type RawReview struct {
	Name     string `json:"name"`
	Reviewer struct {
		DisplayName     string `json:"displayName"`
		ProfilePhotoURL string `json:"profilePhotoUrl"`
	} `json:"reviewer"`
	StarRating string       `json:"starRating"`
	Comment    string       `json:"comment"`
	CreateTime time.Time    `json:"createTime"`
	Reply      *ReviewReply `json:"reviewReply"`
}

// ReviewReply is an existing reply attached to a review on the platform.
type ReviewReply struct {
	Comment    string    `json:"comment"`
	UpdateTime time.Time `json:"updateTime"`
}

type listAccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type listLocationsResponse struct {
	Locations []Location `json:"locations"`
}

type listReviewsResponse struct {
	Reviews []RawReview `json:"reviews"`
}

// ListAccounts returns the business accounts the credential can manage.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out listAccountsResponse
	if err := c.doJSON(ctx, http.MethodGet, c.AccountsAPIBaseURL+"/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// ListLocations returns the locations of one account. accountID is the
// resource name ("accounts/123").
func (c *Client) ListLocations(ctx context.Context, accountID string) ([]Location, error) {
	u := fmt.Sprintf("%s/%s/locations?readMask=%s",
		c.InfoAPIBaseURL, accountID, url.QueryEscape("name,title,storefrontAddress"))
	var out listLocationsResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

// ListReviews returns up to pageSize reviews of one location. locationID is
// the full resource name ("accounts/123/locations/456").
func (c *Client) ListReviews(ctx context.Context, locationID string, pageSize int) ([]RawReview, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	u := fmt.Sprintf("%s/%s/reviews?pageSize=%d", c.ReviewsAPIBaseURL, locationID, pageSize)
	var out listReviewsResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out.Reviews, nil
}

// UpdateReply creates or replaces the owner reply of a review. reviewID is
// the review resource name as returned in RawReview.Name.
func (c *Client) UpdateReply(ctx context.Context, reviewID, comment string) error {
	body := map[string]string{"comment": comment}
	u := fmt.Sprintf("%s/%s/reply", c.ReviewsAPIBaseURL, reviewID)
	return c.doJSON(ctx, http.MethodPut, u, body, nil)
}

// DeleteReply removes the owner reply of a review.
func (c *Client) DeleteReply(ctx context.Context, reviewID string) error {
	u := fmt.Sprintf("%s/%s/reply", c.ReviewsAPIBaseURL, reviewID)
	return c.doJSON(ctx, http.MethodDelete, u, nil, nil)
}

// ensureToken refreshes the access token when it is missing or expired.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.creds.AccessToken == "" && c.creds.RefreshToken == "" {
		return ErrAuthExpired
	}
	if c.creds.AccessToken != "" {
		if c.creds.ExpiresAt == nil || time.Now().Before(c.creds.ExpiresAt.Add(-1*time.Minute)) {
			return nil
		}
	}
	if c.creds.RefreshToken == "" {
		return ErrAuthExpired
	}

	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.TokenURL},
	}
	stale := &oauth2.Token{
		AccessToken:  c.creds.AccessToken,
		RefreshToken: c.creds.RefreshToken,
		Expiry:       time.Now().Add(-1 * time.Minute), // force refresh
	}
	fresh, err := cfg.TokenSource(ctx, stale).Token()
	if err != nil {
		return fmt.Errorf("%w: token refresh failed: %v", ErrAuthExpired, err)
	}

	c.creds.AccessToken = fresh.AccessToken
	expiry := fresh.Expiry
	c.creds.ExpiresAt = &expiry
	if c.OnTokenRefresh != nil {
		c.OnTokenRefresh(fresh.AccessToken, fresh.Expiry)
	}
	return nil
}

// doJSON runs one authenticated request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body interface{}, out interface{}) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, rawURL, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("google business request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

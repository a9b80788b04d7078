package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/navigation"
)

var (
	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
)

// Client talks to the storefront API. It also serves as the place search
// and geocoding source for clients, via the server-side proxy.
type Client struct {
	Base string
	HTTP *http.Client
}

var (
	_ location.Geocoder       = (*Client)(nil)
	_ location.ProfileUpdater = (*Client)(nil)
)

// New builds a client for the API at base (e.g. http://127.0.0.1:8080).
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: location.DefaultTimeout}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: httpClient}
}

// User mirrors the public account view.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// Session is returned by Signup and Login.
type Session struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      User   `json:"user"`
}

// SignupRequest creates a customer account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", req, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out Session
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out)
	return out, err
}

// Logout revokes every token issued to the account so far.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out)
	return out, err
}

// UpdateCurrentLocation stores the customer's delivery location.
func (c *Client) UpdateCurrentLocation(ctx context.Context, token string, update location.LocationUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/customer/location/current", token, update, nil)
}

// CurrentLocation fetches the stored delivery location. ErrNotFound means
// none has been saved yet.
func (c *Client) CurrentLocation(ctx context.Context, token string) (location.LocationUpdate, error) {
	var out location.LocationUpdate
	err := c.do(ctx, http.MethodGet, "/api/customer/location/current", token, nil, &out)
	return out, err
}

func (c *Client) Autocomplete(ctx context.Context, req location.AutocompleteRequest) ([]location.PlaceSuggestion, error) {
	q := url.Values{"input": {req.Input}}
	if req.Bias != nil {
		q.Set("lat", strconv.FormatFloat(req.Bias.Latitude, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(req.Bias.Longitude, 'f', -1, 64))
	}
	if req.SessionToken != "" {
		q.Set("sessionToken", req.SessionToken)
	}
	var out struct {
		Predictions []location.PlaceSuggestion `json:"predictions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/places/autocomplete?"+q.Encode(), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}

func (c *Client) PlaceDetails(ctx context.Context, req location.DetailsRequest) (location.ResolvedLocation, error) {
	path := "/api/places/details/" + url.PathEscape(req.PlaceID)
	if req.SessionToken != "" {
		path += "?" + url.Values{"sessionToken": {req.SessionToken}}.Encode()
	}
	var out location.ResolvedLocation
	err := c.do(ctx, http.MethodGet, path, "", nil, &out)
	return out, err
}

func (c *Client) ReverseGeocode(ctx context.Context, at location.Coordinates) (string, error) {
	q := url.Values{
		"lat": {strconv.FormatFloat(at.Latitude, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(at.Longitude, 'f', -1, 64)},
	}
	var out location.ResolvedLocation
	if err := c.do(ctx, http.MethodGet, "/api/places/reverse?"+q.Encode(), "", nil, &out); err != nil {
		return "", err
	}
	return out.FormattedAddress, nil
}

// Resolve asks the server where the given session belongs for route.
func (c *Client) Resolve(ctx context.Context, token, route string) (navigation.Decision, error) {
	var out navigation.Decision
	body := struct {
		Route string `json:"route"`
	}{route}
	err := c.do(ctx, http.MethodPost, "/api/navigation/resolve", token, body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(method, path string, resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	err := fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, msg)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

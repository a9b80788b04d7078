package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/milkrun/storefront/internal/location"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"
	statusOK       = "OK"
)

// ErrStatus is returned when the provider answers with a status other than OK.
var ErrStatus = errors.New("geocoding provider status")

// Config configures the provider client.
type Config struct {
	BaseURL           string
	APIKey            string
	Country           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client talks to a Places/Geocoding style HTTP JSON API. It is shared by
// all callers and keeps no search session state; session tokens come in on
// each request.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a provider client. A nil httpClient gets one bounded by
// cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = location.DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{cfg: cfg, http: httpClient, limiter: rate.NewLimiter(limit, burst)}
}

type prediction struct {
	PlaceID              string `json:"place_id"`
	Description          string `json:"description"`
	StructuredFormatting struct {
		MainText      string `json:"main_text"`
		SecondaryText string `json:"secondary_text"`
	} `json:"structured_formatting"`
}

type autocompleteResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Predictions  []prediction `json:"predictions"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placeResult struct {
	PlaceID          string `json:"place_id"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location latLng `json:"location"`
	} `json:"geometry"`
}

type detailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       placeResult `json:"result"`
}

type geocodeResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

// Autocomplete returns predictions in provider order.
func (c *Client) Autocomplete(ctx context.Context, req location.AutocompleteRequest) ([]location.PlaceSuggestion, error) {
	q := url.Values{}
	q.Set("input", req.Input)
	if c.cfg.Country != "" {
		q.Set("components", "country:"+c.cfg.Country)
	}
	if req.Bias != nil {
		q.Set("location", formatLatLng(*req.Bias))
		radius := req.RadiusMeters
		if radius <= 0 {
			radius = location.SearchBiasRadiusMeters
		}
		q.Set("radius", strconv.Itoa(radius))
	}
	if req.SessionToken != "" {
		q.Set("sessiontoken", req.SessionToken)
	}

	var out autocompleteResponse
	if err := c.getJSON(ctx, "/place/autocomplete/json", q, &out); err != nil {
		return nil, err
	}
	if err := checkStatus("autocomplete", out.Status, out.ErrorMessage); err != nil {
		return nil, err
	}

	suggestions := make([]location.PlaceSuggestion, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		suggestions = append(suggestions, location.PlaceSuggestion{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return suggestions, nil
}

// PlaceDetails resolves a place id. A session token closes the caller's
// autocomplete session.
func (c *Client) PlaceDetails(ctx context.Context, req location.DetailsRequest) (location.ResolvedLocation, error) {
	q := url.Values{}
	q.Set("place_id", req.PlaceID)
	q.Set("fields", "geometry,formatted_address,place_id")
	if req.SessionToken != "" {
		q.Set("sessiontoken", req.SessionToken)
	}

	var out detailsResponse
	if err := c.getJSON(ctx, "/place/details/json", q, &out); err != nil {
		return location.ResolvedLocation{}, err
	}
	if err := checkStatus("details", out.Status, out.ErrorMessage); err != nil {
		return location.ResolvedLocation{}, err
	}

	id := out.Result.PlaceID
	if id == "" {
		id = req.PlaceID
	}
	return location.ResolvedLocation{
		Coordinates: location.Coordinates{
			Latitude:  out.Result.Geometry.Location.Lat,
			Longitude: out.Result.Geometry.Location.Lng,
		},
		FormattedAddress: out.Result.FormattedAddress,
		PlaceID:          id,
	}, nil
}

// ReverseGeocode returns the first result's formatted address.
func (c *Client) ReverseGeocode(ctx context.Context, at location.Coordinates) (string, error) {
	q := url.Values{}
	q.Set("latlng", formatLatLng(at))

	var out geocodeResponse
	if err := c.getJSON(ctx, "/geocode/json", q, &out); err != nil {
		return "", err
	}
	if err := checkStatus("geocode", out.Status, out.ErrorMessage); err != nil {
		return "", err
	}
	if len(out.Results) == 0 {
		return "", fmt.Errorf("%w: geocode returned no results", ErrStatus)
	}
	return out.Results[0].FormattedAddress, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("geocoding rate limit: %w", err)
	}
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	u := c.cfg.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("geocoding get %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func checkStatus(call, status, message string) error {
	if status == statusOK {
		return nil
	}
	if message != "" {
		return fmt.Errorf("%w: %s %s (%s)", ErrStatus, call, status, message)
	}
	return fmt.Errorf("%w: %s %s", ErrStatus, call, status)
}

func formatLatLng(c location.Coordinates) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

var _ location.Geocoder = (*Client)(nil)

package report

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/urbanstats/nycshootings/internal/models"
)

// defaultMapBaseURL is the Geoapify static-maps endpoint.
const defaultMapBaseURL = "https://maps.geoapify.com/v1/staticmap"

// maxMapMarkers caps how many incident locations go into the map request;
// the marker list travels in the query string and providers reject very
// long URLs.
const maxMapMarkers = 100

// StaticMapClient fetches a rendered map image with incident markers from a
// static-map provider. The API key is injected by the caller; this package
// never reads the environment.
type StaticMapClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStaticMapClient creates a map client, or nil when apiKey is empty so
// callers can treat the map as disabled.
func NewStaticMapClient(apiKey string, timeout time.Duration) *StaticMapClient {
	if apiKey == "" {
		return nil
	}
	return &StaticMapClient{
		baseURL: defaultMapBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchScatter renders a map of the city with one marker per incident that
// carries coordinates, up to maxMapMarkers.
func (c *StaticMapClient) FetchScatter(incidents []models.Incident) ([]byte, error) {
	markers := make([]string, 0, maxMapMarkers)
	for _, in := range incidents {
		if !in.HasCoordinates() {
			continue
		}
		markers = append(markers, fmt.Sprintf("lonlat:%.5f,%.5f;type:circle;size:small", in.Longitude, in.Latitude))
		if len(markers) == maxMapMarkers {
			break
		}
	}
	if len(markers) == 0 {
		return nil, fmt.Errorf("no incidents with coordinates to map")
	}

	query := url.Values{}
	query.Set("style", "osm-bright")
	query.Set("width", "1200")
	query.Set("height", "900")
	// Frame the five boroughs.
	query.Set("center", "lonlat:-73.95,40.70")
	query.Set("zoom", "10")
	query.Set("marker", strings.Join(markers, "|"))
	query.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Get(c.baseURL + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("map request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("map provider returned status %d", resp.StatusCode)
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read map image: %w", err)
	}
	return png, nil
}

package stations

import (
	"context"
	"encoding/json"
	"log"
	"net/url"

	"farefeed/internal/client"
	"farefeed/internal/config"
)

type locationsResponse struct {
	SearchLocations []struct {
		ID   string `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"searchLocations"`
}

// Resolver maps 3-letter station codes to provider-internal location
// identifiers via the locations-search endpoint. Responses ride the same
// cache as fare probes, so repeated lookups rarely hit the provider.
type Resolver struct {
	client *client.Client
	cfg    *config.Config
}

func NewResolver(c *client.Client, cfg *config.Config) *Resolver {
	return &Resolver{client: c, cfg: cfg}
}

// Resolve returns the provider id for a station code, or "" when the
// code is unknown or the lookup failed. It never returns an error: the
// caller records the missing id against the query status.
func (r *Resolver) Resolve(ctx context.Context, code string) string {
	params := url.Values{}
	params.Set("searchTerm", code)
	params.Set("limit", "1")
	params.Set("locale", r.cfg.Locale)

	searchURL := r.cfg.ProviderURL + r.cfg.LocationsURI + "?" + params.Encode()

	body, err := r.client.Get(ctx, searchURL)
	if err != nil {
		log.Printf("Unable to get location for %s: %v", code, err)
		return ""
	}

	var response locationsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		log.Printf("Failed to decode locations response for %s: %v", code, err)
		return ""
	}

	if len(response.SearchLocations) == 0 {
		log.Printf("Invalid station code: %s", code)
		return ""
	}

	location := response.SearchLocations[0]
	if location.Code != "" {
		return location.Code
	}
	return location.ID
}

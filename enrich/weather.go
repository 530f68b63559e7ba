package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// maxWeatherBodySize limits the forecast response size.
const maxWeatherBodySize = 1024 * 1024 // 1MB

// WeatherClient fetches forecasts from the OpenWeather 5-day API and
// condenses them into a short summary for prompt embedding.
type WeatherClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewWeatherClient creates a weather client. baseURL is empty for the public
// endpoint; tests point it at a local server. An empty apiKey disables the
// client (Forecast returns nil, nil).
func NewWeatherClient(baseURL, apiKey string, timeout time.Duration) *WeatherClient {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WeatherClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether the client has a credential to work with.
func (c *WeatherClient) Enabled() bool {
	return c.apiKey != ""
}

// openWeatherResponse is the subset of the OpenWeather forecast format we use.
// Entries arrive in 3-hour intervals, 8 per day.
type openWeatherResponse struct {
	List []struct {
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

// Forecast fetches and summarises the forecast for location over the given
// number of days. Returns (nil, nil) when the client is disabled.
func (c *WeatherClient) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if location == "" {
		return nil, nil
	}
	if days <= 0 {
		days = 1
	}
	if days > 5 {
		days = 5 // API limit
	}

	params := url.Values{
		"q":     {location},
		"appid": {c.apiKey},
		"units": {"metric"},
		"cnt":   {fmt.Sprintf("%d", days*8)},
	}
	reqURL := c.baseURL + "/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeatherBodySize))
	if err != nil {
		return nil, fmt.Errorf("read weather body: %w", err)
	}

	var parsed openWeatherResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse weather response: %w", err)
	}
	if len(parsed.List) == 0 {
		return nil, fmt.Errorf("empty forecast for %q", location)
	}

	return summarise(&parsed, location), nil
}

// summarise condenses interval entries into one forecast line.
func summarise(resp *openWeatherResponse, fallbackLocation string) *Forecast {
	minTemp := resp.List[0].Main.Temp
	maxTemp := minTemp
	conditions := make(map[string]int)

	for _, entry := range resp.List {
		if entry.Main.Temp < minTemp {
			minTemp = entry.Main.Temp
		}
		if entry.Main.Temp > maxTemp {
			maxTemp = entry.Main.Temp
		}
		for _, w := range entry.Weather {
			if w.Description != "" {
				conditions[w.Description]++
			}
		}
	}

	location := resp.City.Name
	if location == "" {
		location = fallbackLocation
	}

	return &Forecast{
		Location:  location,
		Summary:   dominantConditions(conditions, 2),
		TempRange: fmt.Sprintf("%.0f-%.0f°C", minTemp, maxTemp),
	}
}

// dominantConditions returns the top-n most frequent conditions joined with
// commas, most frequent first. Ties break alphabetically for determinism.
func dominantConditions(counts map[string]int, n int) string {
	type cond struct {
		name  string
		count int
	}
	conds := make([]cond, 0, len(counts))
	for name, count := range counts {
		conds = append(conds, cond{name, count})
	}
	sort.Slice(conds, func(i, j int) bool {
		if conds[i].count != conds[j].count {
			return conds[i].count > conds[j].count
		}
		return conds[i].name < conds[j].name
	})

	if len(conds) > n {
		conds = conds[:n]
	}
	names := make([]string, len(conds))
	for i, c := range conds {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	weatherCurrentURL = "https://api.openweathermap.org/data/2.5/weather"
	weatherGeocodeURL = "https://api.openweathermap.org/geo/1.0/direct"
	weatherCacheTTL   = 5 * time.Minute
)

// Cache is the slice of the redis wrapper the weather provider needs. A nil
// Cache disables caching without changing behavior.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// WeatherReport is the normalized current-conditions payload.
type WeatherReport struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature int     `json:"temperature"`
	FeelsLike   int     `json:"feels_like"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Weather queries OpenWeather with a geocoding fallback for names the city
// endpoint does not recognize.
type Weather struct {
	apiKey string
	cache  Cache
	client *http.Client
}

func NewWeather(apiKey string, cache Cache) *Weather {
	if strings.TrimSpace(apiKey) == "" {
		log.Printf("weather provider disabled: missing API key")
		return nil
	}
	return &Weather{
		apiKey: apiKey,
		cache:  cache,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the current conditions for a city, cached for a short
// window per city.
func (w *Weather) Current(ctx context.Context, city string) (*WeatherReport, error) {
	if w == nil {
		return nil, errors.New("weather provider not configured")
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, errors.New("city must not be empty")
	}

	cacheKey := "weather:" + strings.ToLower(city)
	if w.cache != nil {
		var cached WeatherReport
		if err := w.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	report, err := w.fetchByName(ctx, city)
	if err != nil {
		// Names the city endpoint rejects often resolve through geocoding.
		report, err = w.fetchByGeocode(ctx, city)
		if err != nil {
			return nil, err
		}
	}

	if w.cache != nil {
		if err := w.cache.SetJSON(ctx, cacheKey, report, weatherCacheTTL); err != nil {
			log.Printf("weather cache write failed: %v", err)
		}
	}
	return report, nil
}

type openWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (w *Weather) fetchByName(ctx context.Context, city string) (*WeatherReport, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")
	return w.fetchCurrent(ctx, params, "")
}

func (w *Weather) fetchByGeocode(ctx context.Context, city string) (*WeatherReport, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("limit", "1")
	params.Set("appid", w.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		weatherGeocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}

	var places []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("no location found for %q", city)
	}

	current := url.Values{}
	current.Set("lat", fmt.Sprintf("%f", places[0].Lat))
	current.Set("lon", fmt.Sprintf("%f", places[0].Lon))
	current.Set("appid", w.apiKey)
	current.Set("units", "metric")
	return w.fetchCurrent(ctx, current, places[0].Name)
}

func (w *Weather) fetchCurrent(ctx context.Context, params url.Values, overrideName string) (*WeatherReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		weatherCurrentURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: status %d", resp.StatusCode)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	name := payload.Name
	if overrideName != "" {
		name = overrideName
	}
	description := ""
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Description
	}
	return &WeatherReport{
		City:        name,
		Country:     payload.Sys.Country,
		Temperature: int(math.Round(payload.Main.Temp)),
		FeelsLike:   int(math.Round(payload.Main.FeelsLike)),
		Description: description,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
	}, nil
}

// Describe renders a report as a one-paragraph answer.
func (r *WeatherReport) Describe() string {
	loc := r.City
	if r.Country != "" {
		loc = fmt.Sprintf("%s, %s", r.City, r.Country)
	}
	return fmt.Sprintf("Current weather in %s: %s, %d°C (feels like %d°C), humidity %d%%, wind %.1f m/s.",
		loc, r.Description, r.Temperature, r.FeelsLike, r.Humidity, r.WindSpeed)
}

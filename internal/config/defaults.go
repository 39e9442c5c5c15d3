package config

import "time"

// DefaultNearMePhrases are the proximity phrases that route a query to the near-me endpoint.
var DefaultNearMePhrases = []string{
	"près de moi",
	"proche",
	"proximité",
	"autour de moi",
	"near me",
	"près de chez moi",
	"pres de moi",
	"pres de chez moi",
	"pas loin",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.SessionCookie == "" {
		cfg.Server.SessionCookie = "yowyob_session"
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.RateLimit > 0 && cfg.API.Burst == 0 {
		cfg.API.Burst = 1
	}
	if cfg.Search.Debounce == 0 {
		cfg.Search.Debounce = 300 * time.Millisecond
	}
	if cfg.Search.NearMePhrases == nil {
		cfg.Search.NearMePhrases = append([]string(nil), DefaultNearMePhrases...)
	}
	if cfg.Search.HistoryLimit == 0 {
		cfg.Search.HistoryLimit = 50
	}
	if cfg.Search.PlaceholderImage == "" {
		cfg.Search.PlaceholderImage = "https://images.unsplash.com/photo-1586769852836-bc069f19e1b6?w=400"
	}
	if cfg.Search.DefaultShopName == "" {
		cfg.Search.DefaultShopName = "Commerçant local"
	}
	if cfg.Search.DefaultCity == "" {
		cfg.Search.DefaultCity = "Yaoundé"
	}
	if cfg.Search.DefaultLat == 0 && cfg.Search.DefaultLng == 0 {
		cfg.Search.DefaultLat = 3.8480
		cfg.Search.DefaultLng = 11.5021
	}
	if cfg.Search.SuggestionMinLength == 0 {
		cfg.Search.SuggestionMinLength = 2
	}
	if cfg.Search.MaxSuggestions == 0 {
		cfg.Search.MaxSuggestions = 10
	}
	if cfg.Search.ResultsPerPage == 0 {
		cfg.Search.ResultsPerPage = 20
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/yowyob/data/state.db"
	}
	if cfg.Storage.StateKey == "" {
		cfg.Storage.StateKey = "app-storage"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
	if cfg.Storage.Redis.KeyPrefix == "" {
		cfg.Storage.Redis.KeyPrefix = "yowyob:"
	}
	if cfg.Geo.IPServiceURL == "" {
		cfg.Geo.IPServiceURL = "https://api.ipify.org?format=json"
	}
	if cfg.Geo.CacheTTL == 0 {
		cfg.Geo.CacheTTL = 24 * time.Hour
	}
}

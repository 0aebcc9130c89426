package model

import "time"

// Settings is the user's crack configuration.
// Stored at <data dir>/settings.toml
// Schema changes require a version bump; see internal/version/version.go.
type Settings struct {
	CrackSchema          string   `toml:"crack_schema"`
	APIBaseURL           string   `toml:"api_base_url,omitempty"`
	RequestTimeout       Duration `toml:"request_timeout,omitempty"`
	FallbackTimeout      Duration `toml:"fallback_timeout,omitempty"`
	RequestsPerSecond    float64  `toml:"requests_per_second,omitempty"`
	FetchConcurrency     int      `toml:"fetch_concurrency,omitempty"`
	MaxCollectionSize    int      `toml:"max_collection_size,omitempty"`
	StartingBalance      float64  `toml:"starting_balance,omitempty"`
	FreePackKey          string   `toml:"free_pack_key,omitempty"`
	FreePackCooldown     Duration `toml:"free_pack_cooldown,omitempty"`
	PadShortPacks        bool     `toml:"pad_short_packs,omitempty"`
	RefundOnTotalFailure bool     `toml:"refund_on_total_failure,omitempty"`
	LogLevel             string   `toml:"log_level,omitempty"`
	SetCacheTTL          Duration `toml:"set_cache_ttl,omitempty"`
}

// Defaults applied to any zero-valued setting.
const (
	DefaultAPIBaseURL        = "https://api.scryfall.com"
	DefaultRequestTimeout    = 8 * time.Second
	DefaultFallbackTimeout   = 5 * time.Second
	DefaultRequestsPerSecond = 10
	DefaultFetchConcurrency  = 4
	DefaultMaxCollectionSize = 10000
	DefaultStartingBalance   = 100
	DefaultFreePackCooldown  = 24 * time.Hour
	DefaultLogLevel          = "warn"
	DefaultSetCacheTTL       = 7 * 24 * time.Hour
)

// DefaultSettings returns settings with every default filled in.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills zero-valued fields. FreePackKey is left to the caller
// since it depends on the pack catalog.
func (s *Settings) ApplyDefaults() {
	if s.APIBaseURL == "" {
		s.APIBaseURL = DefaultAPIBaseURL
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if s.FallbackTimeout <= 0 {
		s.FallbackTimeout = Duration(DefaultFallbackTimeout)
	}
	if s.RequestsPerSecond <= 0 {
		s.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if s.FetchConcurrency <= 0 {
		s.FetchConcurrency = DefaultFetchConcurrency
	}
	if s.MaxCollectionSize <= 0 {
		s.MaxCollectionSize = DefaultMaxCollectionSize
	}
	if s.StartingBalance <= 0 {
		s.StartingBalance = DefaultStartingBalance
	}
	if s.FreePackCooldown <= 0 {
		s.FreePackCooldown = Duration(DefaultFreePackCooldown)
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.SetCacheTTL <= 0 {
		s.SetCacheTTL = Duration(DefaultSetCacheTTL)
	}
}

// Duration is a time.Duration stored as a string like "8s" in TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

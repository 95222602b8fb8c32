package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model. It captures
// credentials, the tracked keywords, watched accounts, word filters,
// and engagement thresholds.
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Track       []string          `yaml:"track"`
	Follow      []string          `yaml:"follow"`
	Languages   []string          `yaml:"languages"`
	Words       *WordsConfig      `yaml:"words"`
	Omit        []string          `yaml:"omit"`
	Params      Params            `yaml:"params"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type AccountConfig struct {
	ScreenName string `yaml:"screenName"`
}

// CredentialsConfig holds OAuth 1.0a credentials for the X API.
// Empty fields are resolved from the environment.
type CredentialsConfig struct {
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

// WordsConfig is the keyword filter rule applied to tracked statuses.
// Look is an allow-list, Block a deny-list; either may be absent.
type WordsConfig struct {
	Look  []string `yaml:"look"`
	Block []string `yaml:"block"`
}

// Params are the thresholds governing engagement eligibility and pacing.
type Params struct {
	MinFollowersCount    int `yaml:"minFollowersCount"`
	MaxFriendsCount      int `yaml:"maxFriendsCount"`
	MinRetweetCount      int `yaml:"minRetweetCount"`
	MaxDailyRetweets     int `yaml:"maxDailyRetweets"`
	MaxDailyLikes        int `yaml:"maxDailyLikes"`
	AddFollowersCount    int `yaml:"addFollowersCount"`
	MinFollowersExtended int `yaml:"minFollowersExtended"`
	MaxBatch             int `yaml:"maxBatch"`
	StepBatch            int `yaml:"stepBatch"`
	MinsSleep            int `yaml:"minsSleep"`

	// Per-stream mode flags.
	RetweetTracker bool `yaml:"retweetTracker"`
	FollowTracker  bool `yaml:"followTracker"`
	RetweetWatcher bool `yaml:"retweetWatcher"`
	FollowWatcher  bool `yaml:"followWatcher"`

	// When true, an API error without a structured code is treated as a
	// plain failure instead of a rate-limit signal.
	StrictRateLimit bool `yaml:"strictRateLimit"`

	// Dispatcher worker pool sizing. Zero means defaults.
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queueSize"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Account: AccountConfig{ScreenName: ""},
		Track:   []string{"golang", "distributed systems"},
		Words: &WordsConfig{
			Look:  []string{"golang", "kubernetes", "observability"},
			Block: []string{"giveaway", "airdrop"},
		},
		Params: Params{
			MinFollowersCount:    50,
			MaxFriendsCount:      2000,
			MinRetweetCount:      5,
			MaxDailyRetweets:     40,
			MaxDailyLikes:        60,
			AddFollowersCount:    100,
			MinFollowersExtended: 500,
			MaxBatch:             100,
			StepBatch:            10,
			MinsSleep:            15,
			RetweetTracker:       true,
			FollowTracker:        false,
			RetweetWatcher:       true,
			FollowWatcher:        false,
		},
		Storage: StorageConfig{DBPath: "./twitbot.db"},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// ResolveEnv fills in credential fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = os.Getenv("X_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = os.Getenv("X_CONSUMER_SECRET")
	}
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("X_ACCESS_TOKEN")
	}
	if c.Credentials.AccessSecret == "" {
		c.Credentials.AccessSecret = os.Getenv("X_ACCESS_SECRET")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

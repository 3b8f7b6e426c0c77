package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the corresponding setting is omitted.
const (
	DefaultMinScanInterval = time.Minute
	DefaultUpdateInterval  = 30 * time.Second
	DefaultListenAddress   = ":8126"
	DefaultAPIBaseURL      = "https://api.coinbase.com"
)

// Config runtime configuration of the integration.
type Config struct {
	APIKey          string
	APISecret       string
	NativeBalance   bool
	ExcludeWallets  []string
	MinScanInterval time.Duration
	UpdateInterval  time.Duration
	APIBaseURL      string
	ListenAddress   string
	TLSDomains      []string
	CertCacheDir    string
}

// ConfigTmp mirrors Config with yaml-friendly field types. Durations are
// strings in "60s" form and parsed on load.
type ConfigTmp struct {
	APIKey          string   `yaml:"api_key,omitempty"`
	APISecret       string   `yaml:"api_secret,omitempty"`
	NativeBalance   bool     `yaml:"native_balance"`
	ExcludeWallets  []string `yaml:"exclude_wallet,omitempty"`
	MinScanInterval string   `yaml:"min_scan_interval,omitempty"`
	UpdateInterval  string   `yaml:"update_interval,omitempty"`
	APIBaseURL      string   `yaml:"api_base_url,omitempty"`
	ListenAddress   string   `yaml:"listen_address,omitempty"`
	TLSDomains      []string `yaml:"tls_domains,omitempty"`
	CertCacheDir    string   `yaml:"cert_cache_dir,omitempty"`
}

// Get loads configuration from the yaml file passed via --config, falling
// back to CLI flags. Credentials omitted from both sources are taken from
// the COINBASE_API_KEY and COINBASE_API_SECRET environment variables; a
// .env file in the working directory is honored.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	native := flag.Bool("nativebalance", false, "report balances in the native currency")
	exclude := flag.String("exclude", "", "comma separated account names to skip, example: Vault,Savings")
	scanInterval := flag.Duration("scaninterval", DefaultMinScanInterval, "floor between remote refreshes per account")
	updateInterval := flag.Duration("updateinterval", DefaultUpdateInterval, "entity update cadence")
	listen := flag.String("listen", DefaultListenAddress, "status server listen address")
	apiBase := flag.String("apibase", DefaultAPIBaseURL, "coinbase API base url")
	flag.Parse()

	_ = godotenv.Load()

	var cfg Config
	if *configPath != "" {
		var err error
		cfg, err = getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = Config{
			NativeBalance:   *native,
			ExcludeWallets:  splitList(*exclude),
			MinScanInterval: *scanInterval,
			UpdateInterval:  *updateInterval,
			ListenAddress:   *listen,
			APIBaseURL:      *apiBase,
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required (yaml 'api_key' or COINBASE_API_KEY)")
	}
	if c.APISecret == "" {
		return errors.New("api secret is required (yaml 'api_secret' or COINBASE_API_SECRET)")
	}

	return nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	return fromTmp(tmp)
}

func fromTmp(tmp ConfigTmp) (Config, error) {
	cfg := Config{
		APIKey:         tmp.APIKey,
		APISecret:      tmp.APISecret,
		NativeBalance:  tmp.NativeBalance,
		ExcludeWallets: tmp.ExcludeWallets,
		APIBaseURL:     tmp.APIBaseURL,
		ListenAddress:  tmp.ListenAddress,
		TLSDomains:     tmp.TLSDomains,
		CertCacheDir:   tmp.CertCacheDir,
	}

	if tmp.MinScanInterval != "" {
		d, err := time.ParseDuration(tmp.MinScanInterval)
		if err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'min_scan_interval' param in yaml config")
		}
		cfg.MinScanInterval = d
	}
	if tmp.UpdateInterval != "" {
		d, err := time.ParseDuration(tmp.UpdateInterval)
		if err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'update_interval' param in yaml config")
		}
		cfg.UpdateInterval = d
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MinScanInterval <= 0 {
		cfg.MinScanInterval = DefaultMinScanInterval
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
}

// applyEnv fills credentials left blank by the yaml file or flags from the
// COINBASE_API_KEY and COINBASE_API_SECRET environment variables. Values
// already present win over the environment.
func applyEnv(cfg *Config) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("COINBASE_API_KEY")
	}
	if cfg.APISecret == "" {
		cfg.APISecret = os.Getenv("COINBASE_API_SECRET")
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

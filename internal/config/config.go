package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TENDER_TRACKER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	sheetsEndpointEnv = "SHEETS_WEBAPP_URL"
	sheetsTokenEnv    = "SHEETS_WEBAPP_TOKEN"
	logLevelEnv       = "TENDER_TRACKER_LOG_LEVEL"
	logFileEnv        = "TENDER_TRACKER_LOG_FILE"
)

// Config holds process-wide read-only settings, loaded once at run start and
// passed explicitly into components.
type Config struct {
	Logging        LoggingConfig    `yaml:"logging"`
	Sources        SourcesConfig    `yaml:"sources"`
	Pipeline       PipelineConfig   `yaml:"pipeline"`
	Sink           SinkConfig       `yaml:"sink"`
	Categories     []CategoryConfig `yaml:"categories"`
	PriorityBuyers []string         `yaml:"priorityBuyers"`
}

// LoggingConfig selects level and the optional JSON log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SourcesConfig groups per-portal adapter settings.
type SourcesConfig struct {
	API     APISourceConfig     `yaml:"api"`
	HTML    HTMLSourceConfig    `yaml:"html"`
	Browser BrowserSourceConfig `yaml:"browser"`
}

// APISourceConfig describes the JSON portal endpoint.
type APISourceConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	PageSize       int    `yaml:"pageSize"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// HTMLSourceConfig describes the static-HTML portal.
type HTMLSourceConfig struct {
	BaseURL             string `yaml:"baseUrl"`
	KeywordsPerCategory int    `yaml:"keywordsPerCategory"`
	TimeoutSeconds      int    `yaml:"timeoutSeconds"`
}

// BrowserSourceConfig describes the JavaScript-rendered portal. The timeout is
// the hard ceiling for the whole render; on expiry the adapter reports a soft
// failure instead of hanging the run.
type BrowserSourceConfig struct {
	URL            string `yaml:"url"`
	WaitSelector   string `yaml:"waitSelector"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// PipelineConfig tunes record processing. KeepUnmatched disables the noise
// filter that drops uncategorized records from non-priority buyers.
type PipelineConfig struct {
	RolloverGraceDays int  `yaml:"rolloverGraceDays"`
	DescriptionCap    int  `yaml:"descriptionCap"`
	KeepUnmatched     bool `yaml:"keepUnmatched"`
}

// SinkConfig selects and parameterizes the persistence backend.
type SinkConfig struct {
	Kind     string         `yaml:"kind"` // "sheets" or "postgres"
	Sheets   SheetsConfig   `yaml:"sheets"`
	Database DatabaseConfig `yaml:"database"`
}

// SheetsConfig wires the spreadsheet web-app submission endpoint.
type SheetsConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// CategoryConfig declares one category with its trigger keywords and rank.
type CategoryConfig struct {
	Label    string   `yaml:"label"`
	Rank     int      `yaml:"rank"`
	Keywords []string `yaml:"keywords"`
}

// BrowserTimeout resolves the browser ceiling as a duration.
func (b BrowserSourceConfig) BrowserTimeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultConfig().Categories
	}
	if len(cfg.PriorityBuyers) == 0 {
		cfg.PriorityBuyers = defaultConfig().PriorityBuyers
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Sink.Database.DSN = v
	}
	if v := os.Getenv(sheetsEndpointEnv); v != "" {
		c.Sink.Sheets.Endpoint = v
	}
	if v := os.Getenv(sheetsTokenEnv); v != "" {
		c.Sink.Sheets.Token = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFileEnv); v != "" {
		c.Logging.File = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.Sources.API.BaseURL != "" {
		base.Sources.API.BaseURL = override.Sources.API.BaseURL
	}
	if override.Sources.API.PageSize > 0 {
		base.Sources.API.PageSize = override.Sources.API.PageSize
	}
	if override.Sources.API.TimeoutSeconds > 0 {
		base.Sources.API.TimeoutSeconds = override.Sources.API.TimeoutSeconds
	}

	if override.Sources.HTML.BaseURL != "" {
		base.Sources.HTML.BaseURL = override.Sources.HTML.BaseURL
	}
	if override.Sources.HTML.KeywordsPerCategory > 0 {
		base.Sources.HTML.KeywordsPerCategory = override.Sources.HTML.KeywordsPerCategory
	}
	if override.Sources.HTML.TimeoutSeconds > 0 {
		base.Sources.HTML.TimeoutSeconds = override.Sources.HTML.TimeoutSeconds
	}

	if override.Sources.Browser.URL != "" {
		base.Sources.Browser.URL = override.Sources.Browser.URL
	}
	if override.Sources.Browser.WaitSelector != "" {
		base.Sources.Browser.WaitSelector = override.Sources.Browser.WaitSelector
	}
	if override.Sources.Browser.TimeoutSeconds > 0 {
		base.Sources.Browser.TimeoutSeconds = override.Sources.Browser.TimeoutSeconds
	}

	if override.Pipeline.RolloverGraceDays > 0 {
		base.Pipeline.RolloverGraceDays = override.Pipeline.RolloverGraceDays
	}
	if override.Pipeline.DescriptionCap > 0 {
		base.Pipeline.DescriptionCap = override.Pipeline.DescriptionCap
	}
	if override.Pipeline.KeepUnmatched {
		base.Pipeline.KeepUnmatched = true
	}

	if override.Sink.Kind != "" {
		base.Sink.Kind = override.Sink.Kind
	}
	if override.Sink.Sheets.Endpoint != "" {
		base.Sink.Sheets.Endpoint = override.Sink.Sheets.Endpoint
	}
	if override.Sink.Sheets.Token != "" {
		base.Sink.Sheets.Token = override.Sink.Sheets.Token
	}
	if override.Sink.Database.DSN != "" {
		base.Sink.Database.DSN = override.Sink.Database.DSN
	}

	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}
	if len(override.PriorityBuyers) > 0 {
		base.PriorityBuyers = override.PriorityBuyers
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", File: "tender_tracker.log"},
		Sources: SourcesConfig{
			API: APISourceConfig{
				BaseURL:        "https://www.etenders.gov.za",
				PageSize:       100,
				TimeoutSeconds: 30,
			},
			HTML: HTMLSourceConfig{
				BaseURL:             "https://easytenders.co.za",
				KeywordsPerCategory: 5,
				TimeoutSeconds:      30,
			},
			Browser: BrowserSourceConfig{
				URL:            "https://transnetetenders.azurewebsites.net/Home/AdvertisedTenders",
				WaitSelector:   "table#_advertisedTenders",
				TimeoutSeconds: 45,
			},
		},
		Pipeline: PipelineConfig{
			RolloverGraceDays: 30,
			DescriptionCap:    500,
		},
		Sink: SinkConfig{Kind: "sheets"},
		Categories: []CategoryConfig{
			{
				Label: "insurance",
				Rank:  1,
				Keywords: []string{
					"insurance", "broker", "risk management", "underwriting",
					"policy", "premium", "claim", "sasria", "fidelity",
					"liability", "indemnity", "surety", "bond", "actuarial",
					"loss control", "marine", "aviation", "motor fleet",
					"short-term", "medical aid", "pension", "provident", "guarantee",
				},
			},
			{
				Label: "advisory_consulting",
				Rank:  2,
				Keywords: []string{
					"advisory", "consultant", "consulting", "risk advisory",
					"financial advisory", "strategy", "actuarial services",
					"management consulting", "business advisory", "feasibility",
					"audit", "internal audit", "forensic", "governance", "professional services",
				},
			},
			{
				Label: "civil_engineering",
				Rank:  3,
				Keywords: []string{
					"civil engineering", "infrastructure", "roads", "bridges",
					"water", "sewer", "stormwater", "earthworks", "structural",
					"pavement", "drainage", "bulk services",
				},
			},
			{
				Label: "cleaning_facility",
				Rank:  4,
				Keywords: []string{
					"cleaning", "facilities", "facility management", "hygiene",
					"sanitation", "waste management", "grounds maintenance",
					"janitorial", "pest control", "landscaping",
				},
			},
			{
				Label: "construction",
				Rank:  5,
				Keywords: []string{
					"construction", "building", "renovation", "refurbishment",
					"structural", "concrete", "roofing", "painting", "electrical",
					"plumbing", "hvac", "maintenance", "alterations",
				},
			},
		},
		PriorityBuyers: []string{
			"Chief Albert Luthuli Municipality",
			"Financial and Fiscal Commission",
			"CIDB",
			"National Treasury",
			"AEMFC",
			"ERWAT",
			"MQA",
			"TASEZ",
			"ARC",
			"MerSETA",
			"Mogalakwena",
		},
	}
}

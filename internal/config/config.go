package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Eero      EeroConfig      `mapstructure:"eero"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Scorecard ScorecardConfig `mapstructure:"scorecard"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Networks  []NetworkConfig `mapstructure:"networks"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type PollerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a cron spec (seconds granularity) for the poll cycle.
	Schedule string `mapstructure:"schedule"`
	// RetentionDays bounds metric history; older rows are pruned nightly.
	RetentionDays int    `mapstructure:"retention_days"`
	PruneSchedule string `mapstructure:"prune_schedule"`
}

type EeroConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// TokenEnv names the environment variable holding the API session token.
	TokenEnv string `mapstructure:"token_env"`
}

// ScoringConfig drives the composite health score. Weights apply to values on
// a 0-100 scale; NodeWeight must carry the dominant share.
type ScoringConfig struct {
	NodeWeight   float64 `mapstructure:"node_weight"`
	SignalWeight float64 `mapstructure:"signal_weight"`
	// BandwidthPenalty is subtracted from the score when utilization exceeds
	// BandwidthPenaltyThreshold (a percentage).
	BandwidthPenalty          float64 `mapstructure:"bandwidth_penalty"`
	BandwidthPenaltyThreshold float64 `mapstructure:"bandwidth_penalty_threshold"`
	HealthyCutoff             int     `mapstructure:"healthy_cutoff"`
	DegradedCutoff            int     `mapstructure:"degraded_cutoff"`
}

type AlertingConfig struct {
	// BandwidthThresholdPct raises a bandwidth alert once utilization has
	// exceeded it for ConsecutiveBreaches successive snapshots.
	BandwidthThresholdPct float64 `mapstructure:"bandwidth_threshold_pct"`
	ConsecutiveBreaches   int     `mapstructure:"consecutive_breaches"`
}

// ScorecardConfig drives the windowed report-card grade. Weights must sum
// to 1 and letter cutoffs must be strictly decreasing.
type ScorecardConfig struct {
	WindowDays      int     `mapstructure:"window_days"`
	MinSamples      int     `mapstructure:"min_samples"`
	UptimeWeight    float64 `mapstructure:"uptime_weight"`
	SignalWeight    float64 `mapstructure:"signal_weight"`
	IncidentWeight  float64 `mapstructure:"incident_weight"`
	BandwidthWeight float64 `mapstructure:"bandwidth_weight"`
	GradeACutoff    float64 `mapstructure:"grade_a_cutoff"`
	GradeBCutoff    float64 `mapstructure:"grade_b_cutoff"`
	GradeCCutoff    float64 `mapstructure:"grade_c_cutoff"`
	GradeDCutoff    float64 `mapstructure:"grade_d_cutoff"`
}

type NotifyConfig struct {
	Email   EmailConfig   `mapstructure:"email"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type EmailConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	PassEnv string `mapstructure:"pass_env"`
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
}

type WebhookConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type NetworkConfig struct {
	ID       string   `mapstructure:"id"`
	Name     string   `mapstructure:"name"`
	Email    string   `mapstructure:"email"`
	SiteType string   `mapstructure:"site_type"`
	Street   string   `mapstructure:"street"`
	City     string   `mapstructure:"city"`
	State    string   `mapstructure:"state"`
	Zip      string   `mapstructure:"zip"`
	Country  string   `mapstructure:"country"`
	Lat      *float64 `mapstructure:"lat"`
	Lon      *float64 `mapstructure:"lon"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EERO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("poller.enabled", true)
	v.SetDefault("poller.schedule", "@every 1m")
	v.SetDefault("poller.retention_days", 30)
	v.SetDefault("poller.prune_schedule", "0 0 3 * * *")

	v.SetDefault("eero.base_url", "https://api-user.e2ro.com")
	v.SetDefault("eero.timeout", "15s")
	v.SetDefault("eero.token_env", "EERO_API_TOKEN")

	v.SetDefault("scoring.node_weight", 0.60)
	v.SetDefault("scoring.signal_weight", 0.40)
	v.SetDefault("scoring.bandwidth_penalty", 15)
	v.SetDefault("scoring.bandwidth_penalty_threshold", 90)
	v.SetDefault("scoring.healthy_cutoff", 80)
	v.SetDefault("scoring.degraded_cutoff", 40)

	v.SetDefault("alerting.bandwidth_threshold_pct", 95)
	v.SetDefault("alerting.consecutive_breaches", 3)

	v.SetDefault("scorecard.window_days", 7)
	v.SetDefault("scorecard.min_samples", 24)
	v.SetDefault("scorecard.uptime_weight", 0.40)
	v.SetDefault("scorecard.signal_weight", 0.25)
	v.SetDefault("scorecard.incident_weight", 0.20)
	v.SetDefault("scorecard.bandwidth_weight", 0.15)
	v.SetDefault("scorecard.grade_a_cutoff", 90)
	v.SetDefault("scorecard.grade_b_cutoff", 80)
	v.SetDefault("scorecard.grade_c_cutoff", 70)
	v.SetDefault("scorecard.grade_d_cutoff", 60)

	v.SetDefault("notify.email.enabled", false)
	v.SetDefault("notify.email.port", 587)
	v.SetDefault("notify.email.from", "noreply@eero-dashboard.local")
	v.SetDefault("notify.email.pass_env", "EERO_SMTP_PASS")
	v.SetDefault("notify.webhook.enabled", false)
	v.SetDefault("notify.webhook.timeout", "10s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects threshold and weight values that would make scoring or
// alerting silently wrong. It fails fast at load time; nothing is clamped.
func (c Config) Validate() error {
	s := c.Scoring
	if s.NodeWeight < 0 || s.SignalWeight < 0 {
		return fmt.Errorf("invalid config: scoring weights must be non-negative (node=%v signal=%v)", s.NodeWeight, s.SignalWeight)
	}
	if s.NodeWeight+s.SignalWeight == 0 {
		return fmt.Errorf("invalid config: scoring weights must not all be zero")
	}
	if s.NodeWeight < s.SignalWeight {
		return fmt.Errorf("invalid config: node_weight (%v) must carry the dominant share over signal_weight (%v)", s.NodeWeight, s.SignalWeight)
	}
	if s.BandwidthPenalty < 0 {
		return fmt.Errorf("invalid config: bandwidth_penalty must be non-negative, got %v", s.BandwidthPenalty)
	}
	if s.BandwidthPenaltyThreshold < 0 || s.BandwidthPenaltyThreshold > 100 {
		return fmt.Errorf("invalid config: bandwidth_penalty_threshold must be within [0,100], got %v", s.BandwidthPenaltyThreshold)
	}
	if s.DegradedCutoff < 0 || s.HealthyCutoff > 100 || s.DegradedCutoff >= s.HealthyCutoff {
		return fmt.Errorf("invalid config: tier cutoffs must satisfy 0 <= degraded < healthy <= 100, got degraded=%d healthy=%d", s.DegradedCutoff, s.HealthyCutoff)
	}

	a := c.Alerting
	if a.BandwidthThresholdPct <= 0 || a.BandwidthThresholdPct > 100 {
		return fmt.Errorf("invalid config: bandwidth_threshold_pct must be within (0,100], got %v", a.BandwidthThresholdPct)
	}
	if a.ConsecutiveBreaches < 1 {
		return fmt.Errorf("invalid config: consecutive_breaches must be at least 1, got %d", a.ConsecutiveBreaches)
	}

	sc := c.Scorecard
	for name, w := range map[string]float64{
		"uptime_weight":    sc.UptimeWeight,
		"signal_weight":    sc.SignalWeight,
		"incident_weight":  sc.IncidentWeight,
		"bandwidth_weight": sc.BandwidthWeight,
	} {
		if w < 0 {
			return fmt.Errorf("invalid config: scorecard %s must be non-negative, got %v", name, w)
		}
	}
	sum := sc.UptimeWeight + sc.SignalWeight + sc.IncidentWeight + sc.BandwidthWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("invalid config: scorecard weights must sum to 1, got %v", sum)
	}
	if !(sc.GradeACutoff > sc.GradeBCutoff && sc.GradeBCutoff > sc.GradeCCutoff && sc.GradeCCutoff > sc.GradeDCutoff && sc.GradeDCutoff > 0) {
		return fmt.Errorf("invalid config: scorecard grade cutoffs must be strictly decreasing and positive")
	}
	if sc.WindowDays < 1 {
		return fmt.Errorf("invalid config: scorecard window_days must be at least 1, got %d", sc.WindowDays)
	}

	if c.Poller.RetentionDays < 1 {
		return fmt.Errorf("invalid config: poller retention_days must be at least 1, got %d", c.Poller.RetentionDays)
	}

	seen := map[string]struct{}{}
	for _, n := range c.Networks {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("invalid config: network with empty id")
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("invalid config: duplicate network id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

// Package config loads the daemon's runtime configuration from environment
// variables, flags, and an optional YAML file, the way cmd_pawd's root
// command binds viper to cobra flags (SPEC_FULL.md Configuration module).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is every tunable spec.md §6 enumerates, plus the database and
// transport settings the ambient stack requires.
type Config struct {
	// Database is the Postgres DSN shared by the Counter Store and Queue
	// Store (spec §5).
	Database string

	// Siblings is the list of sibling replica base URLs used for
	// replication and resync (spec §3 "Sibling Set").
	Siblings []string

	// DefaultSyncLevel is used when a verify request omits "sl" (spec §6,
	// SUPPLEMENTED FEATURE 3).
	DefaultSyncLevel int
	// SyncTimeout is T, the per-sibling fetch timeout (spec §4.4).
	SyncTimeout time.Duration

	// UseNativeKSM selects the in-process AES decryptor. The remote KSM
	// decryptor is wired whenever KSMServers is non-empty; when both are
	// present they are combined via internal/ksm.MultiDecryptor.
	UseNativeKSM bool
	// KSMServers is the ordered list of remote YK-KSM server URLs.
	KSMServers []string
	// AESKeys maps public_name to its raw AES key, for the native
	// decryptor. Only used when UseNativeKSM is true.
	AESKeys map[string][]byte

	// TSSec, TSRelTolerance, TSAbsTolerance parameterize the phishing/
	// timing test (spec §4.5 Step 5).
	TSSec          float64
	TSRelTolerance float64
	TSAbsTolerance float64

	// HTTPHost/HTTPPort/RateLimitRPS/CORSOrigins configure the transport.
	HTTPHost     string
	HTTPPort     int
	RateLimitRPS int
	CORSOrigins  []string

	// MetricsPort is loaded but not used by the daemon: /metrics is served
	// on the same listener as the other routes (HTTPHost:HTTPPort).
	MetricsPort int
}

// Load reads configuration from an optional file at path (if non-empty),
// environment variables prefixed YKVALD_, and the package's defaults.
// Precedence is viper's own: env > file > defaults (no flags are bound
// here).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YKVALD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Database:         v.GetString("database"),
		Siblings:         v.GetStringSlice("siblings"),
		DefaultSyncLevel: v.GetInt("sync_level"),
		SyncTimeout:      v.GetDuration("sync_timeout"),
		UseNativeKSM:     v.GetBool("use_native_ksm"),
		KSMServers:       v.GetStringSlice("ksm_servers"),
		TSSec:            v.GetFloat64("ts_sec"),
		TSRelTolerance:   v.GetFloat64("ts_rel_tolerance"),
		TSAbsTolerance:   v.GetFloat64("ts_abs_tolerance"),
		HTTPHost:         v.GetString("http_host"),
		HTTPPort:         v.GetInt("http_port"),
		RateLimitRPS:     v.GetInt("rate_limit_rps"),
		CORSOrigins:      v.GetStringSlice("cors_origins"),
		MetricsPort:      v.GetInt("metrics_port"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sync_level", 0)
	v.SetDefault("sync_timeout", time.Second)
	v.SetDefault("use_native_ksm", true)
	v.SetDefault("ts_sec", 1.0/8.0)
	v.SetDefault("ts_rel_tolerance", 0.3)
	v.SetDefault("ts_abs_tolerance", 20.0)
	v.SetDefault("http_host", "0.0.0.0")
	v.SetDefault("http_port", 8080)
	v.SetDefault("rate_limit_rps", 100)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("metrics_port", 9090)
}

func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"database", "siblings", "sync_level", "sync_timeout",
		"use_native_ksm", "ksm_servers", "ts_sec", "ts_rel_tolerance",
		"ts_abs_tolerance", "http_host", "http_port", "rate_limit_rps",
		"cors_origins", "metrics_port",
	} {
		_ = v.BindEnv(key)
	}
}

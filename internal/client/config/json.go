package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/flagx"
	"github.com/dmitrijs2005/parkclient/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "zero", so a partial file only overrides what
// it mentions.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	APIPrefix           *string         `json:"api_prefix"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	DBPath              *string         `json:"db_path"`
	StoreTimeout        *timex.Duration `json:"store_timeout"`
	ValidateOnStartup   *bool           `json:"validate_on_startup"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
	BreakerFailureRatio *float64        `json:"breaker_failure_ratio"`
	BreakerMinRequests  *uint32         `json:"breaker_min_requests"`
	BreakerOpenTimeout  *timex.Duration `json:"breaker_open_timeout"`
	TracingEnabled      *bool           `json:"tracing_enabled"`
	OTLPEndpoint        *string         `json:"otlp_endpoint"`
}

// parseJSON overlays cfg with the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setIf(&cfg.ServerURL, jc.ServerURL)
	setIf(&cfg.APIPrefix, jc.APIPrefix)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setIf(&cfg.DBPath, jc.DBPath)
	setDuration(&cfg.StoreTimeout, jc.StoreTimeout)
	setIf(&cfg.ValidateOnStartup, jc.ValidateOnStartup)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	setIf(&cfg.BreakerFailureRatio, jc.BreakerFailureRatio)
	setIf(&cfg.BreakerMinRequests, jc.BreakerMinRequests)
	setDuration(&cfg.BreakerOpenTimeout, jc.BreakerOpenTimeout)
	setIf(&cfg.TracingEnabled, jc.TracingEnabled)
	setIf(&cfg.OTLPEndpoint, jc.OTLPEndpoint)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

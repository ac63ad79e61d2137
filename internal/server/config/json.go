package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ebelanger/pastecove/internal/flagx"
)

// JsonConfig is the intermediate DTO used only for reading JSON configuration
// files. Durations are given in seconds, expiries in hours. Zero-valued
// fields keep their current (default) values; limits and budgets overlay
// field by field the same way.
type JsonConfig struct {
	DatabaseDSN string `json:"database_dsn"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
	SweepWorkers         int `json:"sweep_workers"`
	StoreTimeoutSeconds  int `json:"store_timeout_seconds"`

	MinDocumentCount   int      `json:"min_document_count"`
	MaxDocumentCount   int      `json:"max_document_count"`
	MinDocumentSize    int64    `json:"min_document_size"`
	MaxDocumentSize    int64    `json:"max_document_size"`
	MinTotalSize       int64    `json:"min_total_size"`
	MaxTotalSize       int64    `json:"max_total_size"`
	MinNameLength      int      `json:"min_name_length"`
	MaxNameLength      int      `json:"max_name_length"`
	MinExpiryHours     int      `json:"min_expiry_hours"`
	MaxExpiryHours     int      `json:"max_expiry_hours"`
	DefaultExpiryHours int      `json:"default_expiry_hours"`
	DefaultMaxViews    int64    `json:"default_max_views"`
	UnsupportedTypes   []string `json:"unsupported_types"`

	RateGlobal         int `json:"rate_global"`
	RatePaste          int `json:"rate_paste"`
	RateDocument       int `json:"rate_document"`
	RateConfig         int `json:"rate_config"`
	RateGetPaste       int `json:"rate_get_paste"`
	RatePostPaste      int `json:"rate_post_paste"`
	RatePatchPaste     int `json:"rate_patch_paste"`
	RateDeletePaste    int `json:"rate_delete_paste"`
	RateGetDocument    int `json:"rate_get_document"`
	RatePostDocument   int `json:"rate_post_document"`
	RatePatchDocument  int `json:"rate_patch_document"`
	RateDeleteDocument int `json:"rate_delete_document"`
	RateGetConfig      int `json:"rate_get_config"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. An unreadable or
// invalid file panics: a misconfigured server must not start.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.SweepIntervalSeconds > 0 {
		config.SweepInterval = time.Duration(c.SweepIntervalSeconds) * time.Second
	}
	if c.SweepWorkers > 0 {
		config.SweepWorkers = c.SweepWorkers
	}
	if c.StoreTimeoutSeconds > 0 {
		config.StoreTimeout = time.Duration(c.StoreTimeoutSeconds) * time.Second
	}

	setInt(&config.Limits.MinDocumentCount, c.MinDocumentCount)
	setInt(&config.Limits.MaxDocumentCount, c.MaxDocumentCount)
	setInt64(&config.Limits.MinDocumentSize, c.MinDocumentSize)
	setInt64(&config.Limits.MaxDocumentSize, c.MaxDocumentSize)
	setInt64(&config.Limits.MinTotalSize, c.MinTotalSize)
	setInt64(&config.Limits.MaxTotalSize, c.MaxTotalSize)
	setInt(&config.Limits.MinNameLength, c.MinNameLength)
	setInt(&config.Limits.MaxNameLength, c.MaxNameLength)
	setInt(&config.Limits.MinExpiryHours, c.MinExpiryHours)
	setInt(&config.Limits.MaxExpiryHours, c.MaxExpiryHours)
	setInt(&config.Limits.DefaultExpiryHours, c.DefaultExpiryHours)
	setInt64(&config.Limits.DefaultMaxViews, c.DefaultMaxViews)
	if c.UnsupportedTypes != nil {
		config.Limits.UnsupportedTypes = c.UnsupportedTypes
	}

	setInt(&config.RateBudgets.Global, c.RateGlobal)
	setInt(&config.RateBudgets.Paste, c.RatePaste)
	setInt(&config.RateBudgets.Document, c.RateDocument)
	setInt(&config.RateBudgets.Config, c.RateConfig)
	setInt(&config.RateBudgets.GetPaste, c.RateGetPaste)
	setInt(&config.RateBudgets.PostPaste, c.RatePostPaste)
	setInt(&config.RateBudgets.PatchPaste, c.RatePatchPaste)
	setInt(&config.RateBudgets.DeletePaste, c.RateDeletePaste)
	setInt(&config.RateBudgets.GetDocument, c.RateGetDocument)
	setInt(&config.RateBudgets.PostDocument, c.RatePostDocument)
	setInt(&config.RateBudgets.PatchDocument, c.RatePatchDocument)
	setInt(&config.RateBudgets.DeleteDocument, c.RateDeleteDocument)
	setInt(&config.RateBudgets.GetConfig, c.RateGetConfig)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setInt64(dst *int64, v int64) {
	if v != 0 {
		*dst = v
	}
}

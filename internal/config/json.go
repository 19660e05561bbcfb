package config

import (
	"encoding/json"
	"os"

	"github.com/skuznetsov/finvault/internal/flagx"
	"github.com/skuznetsov/finvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so the session TTL can be written as "15m".
type JsonConfig struct {
	DatabasePath      string         `json:"database_path"`
	PBKDF2Iterations  int            `json:"pbkdf2_iterations"`
	RetentionDays     int            `json:"retention_days"`
	SnapshotThreshold float64        `json:"snapshot_threshold"`
	SessionTTL        timex.Duration `json:"session_ttl"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flags. Absent file path means no overlay. Only fields
// present in the file override the defaults.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PBKDF2Iterations > 0 {
		cfg.PBKDF2Iterations = jc.PBKDF2Iterations
	}
	if jc.RetentionDays > 0 {
		cfg.RetentionDays = jc.RetentionDays
	}
	if jc.SnapshotThreshold > 0 {
		cfg.SnapshotThreshold = jc.SnapshotThreshold
	}
	if jc.SessionTTL.Duration > 0 {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
}

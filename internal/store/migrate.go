package store

// CurrentSchemaVersion is the payload shape written by this build. Records
// written by older builds are upgraded in memory when read; the stored row
// is rewritten at the next update.
const CurrentSchemaVersion = 2

// payloadMigrations upgrades a payload from the keyed version to the next
// one. Migrations are forward-only and must be idempotent on already-
// migrated maps.
var payloadMigrations = map[int]func(map[string]any){
	// v1 stored the savings/deposit rate under the ambiguous key "rate".
	1: func(p map[string]any) {
		if v, ok := p["rate"]; ok {
			if _, exists := p["interest_rate"]; !exists {
				p["interest_rate"] = v
			}
			delete(p, "rate")
		}
	},
}

// migratePayload applies every migration from version up to the current one
// and returns the resulting version.
func migratePayload(p map[string]any, version int) int {
	for v := version; v < CurrentSchemaVersion; v++ {
		if m, ok := payloadMigrations[v]; ok {
			m(p)
		}
	}
	return CurrentSchemaVersion
}

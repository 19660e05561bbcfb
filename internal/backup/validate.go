package backup

import "fmt"

// ValidationResult collects the findings of a structural check. Errors make
// the payload unacceptable for Restore; warnings do not.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs structural checks over a payload: required fields, count
// consistency, duplicate ids, dangling references. It never mutates the
// payload and is always safe to call before an import.
func Validate(p *Payload) *ValidationResult {
	r := &ValidationResult{}

	if p.Manifest.FormatVersion < 1 {
		r.errorf("manifest: missing or invalid format_version %d", p.Manifest.FormatVersion)
	}
	if p.Manifest.AccountCount != len(p.Accounts) {
		r.errorf("manifest: account_count %d does not match %d accounts",
			p.Manifest.AccountCount, len(p.Accounts))
	}
	if p.Manifest.PositionCount != len(p.Positions) {
		r.errorf("manifest: position_count %d does not match %d positions",
			p.Manifest.PositionCount, len(p.Positions))
	}
	if p.Manifest.SnapshotCount != len(p.Snapshots) {
		r.errorf("manifest: snapshot_count %d does not match %d snapshots",
			p.Manifest.SnapshotCount, len(p.Snapshots))
	}
	if p.Manifest.SettingCount != len(p.Settings) {
		r.errorf("manifest: setting_count %d does not match %d settings",
			p.Manifest.SettingCount, len(p.Settings))
	}

	ids := make(map[string]bool, len(p.Accounts))
	for i := range p.Accounts {
		a := &p.Accounts[i]
		if a.ID == "" {
			r.errorf("account %d: missing id", i)
			continue
		}
		if ids[a.ID] {
			r.errorf("account %s: duplicate id", a.ID)
		}
		ids[a.ID] = true
		if a.Name == "" {
			r.errorf("account %s: missing name", a.ID)
		}
		if a.Kind == "" {
			r.errorf("account %s: missing kind", a.ID)
		}
	}

	for i := range p.Positions {
		pos := &p.Positions[i]
		if pos.ID == "" || pos.AccountID == "" {
			r.errorf("position %d: missing id or account_id", i)
			continue
		}
		if !ids[pos.AccountID] {
			r.warnf("position %s: account %s not in this backup", pos.ID, pos.AccountID)
		}
	}

	for i := range p.Snapshots {
		s := &p.Snapshots[i]
		if s.ID == "" || s.AccountID == "" {
			r.errorf("snapshot %d: missing id or account_id", i)
			continue
		}
		if !ids[s.AccountID] {
			r.warnf("snapshot %s: account %s not in this backup", s.ID, s.AccountID)
		}
	}
	return r
}

package draft

import "fmt"

// Record migrations, keyed by the version they migrate FROM. Each step
// raises the version by exactly one; a draft more than one version old runs
// the full chain. Steps must be pure: no IO, no clock reads.
var migrations = map[int]func(*Draft) error{
	1: migrateV1StepNumbering,
}

// migrateV1StepNumbering maps the legacy step range. Version 1 drafts
// numbered the editable steps 0-2; version 2 renumbered them 2-4 so the
// externally satisfied Select step owns an index. The +2 offset lives only
// here, never in load logic.
func migrateV1StepNumbering(d *Draft) error {
	if d.CurrentStep < 0 || d.CurrentStep > 2 {
		return fmt.Errorf("version 1 draft has step %d outside legacy range 0-2", d.CurrentStep)
	}
	d.CurrentStep += 2
	return nil
}

// Migrate runs a draft through the migration chain up to CurrentVersion.
// A draft already at CurrentVersion is returned unchanged.
func Migrate(d *Draft) (*Draft, error) {
	if d == nil {
		return nil, nil
	}
	if d.Version > CurrentVersion {
		return nil, fmt.Errorf("draft version %d is newer than supported version %d", d.Version, CurrentVersion)
	}
	for d.Version < CurrentVersion {
		step, ok := migrations[d.Version]
		if !ok {
			return nil, fmt.Errorf("no migration from draft version %d", d.Version)
		}
		if err := step(d); err != nil {
			return nil, fmt.Errorf("migrate draft from version %d: %w", d.Version, err)
		}
		d.Version++
	}
	return d, nil
}

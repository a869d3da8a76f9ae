package staging

import (
	"fmt"
	"strings"

	"lineup/internal/draft"
)

// Step is a position in the fixed staging pipeline. Select is satisfied
// externally before a session opens, so the entry range for a live session
// is [StepPrepare, StepReview].
type Step int

const (
	StepSelect Step = iota + 1
	StepPrepare
	StepSchedule
	StepReview
)

var stepNames = map[Step]string{
	StepSelect:   "select",
	StepPrepare:  "prepare",
	StepSchedule: "schedule",
	StepReview:   "review",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep converts a step name into its canonical index.
func ParseStep(value string) (Step, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for step, name := range stepNames {
		if name == normalized {
			return step, true
		}
	}
	return 0, false
}

// clampStep forces any requested step into the valid live-session range.
func clampStep(requested int) Step {
	switch {
	case requested < int(StepPrepare):
		return StepPrepare
	case requested > int(StepReview):
		return StepReview
	default:
		return Step(requested)
	}
}

// ResolveInitialStep picks the step a session opens at. An explicit request
// wins; otherwise a recovered draft's step is used. Both are clamped into
// [StepPrepare, StepReview] so out-of-range input can never start a session
// outside the pipeline. Drafts are migrated before they reach here, so the
// step value is already in current numbering.
func ResolveInitialStep(requested int, recovered *draft.Draft) Step {
	if requested != 0 {
		return clampStep(requested)
	}
	if recovered != nil {
		return clampStep(recovered.CurrentStep)
	}
	return StepPrepare
}

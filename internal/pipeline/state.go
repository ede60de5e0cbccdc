package pipeline

// State is a step of one run. Runs move through the states in declaration
// order and end in StateDone or StateFailed.
type State string

const (
	StateStarted           State = "STARTED"
	StateStrategistRunning State = "STRATEGIST_RUNNING"
	StateParsing           State = "PARSING"
	StateValidating        State = "VALIDATING"
	StateOpsRunning        State = "OPS_RUNNING"
	StatePatching          State = "PATCHING"
	StateEngineerRunning   State = "ENGINEER_RUNNING"
	StateExporting         State = "EXPORTING"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Ops patch outcomes reported in ops_patch events.
const (
	PatchApplied = "applied"
	PatchNone    = "none"
)

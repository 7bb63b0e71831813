package domain

// Reserved words of the definition language.
const (
	// RootName is the name given to the synthetic top-level state when the
	// definition does not name it. It prefixes every absolute state path.
	RootName = "root"

	// StartState designates the child entered automatically when its parent is
	// entered. Mandatory when a state has more than one child.
	StartState = "start"

	// EndState is the terminal state of a machine. It cannot declare exit
	// actions nor transitions; entry actions are allowed.
	EndState = "end_state"

	// FinalState is any state the machine stops processing events in.
	FinalState = "final"

	// EventAuto never requires an external event. It is attempted once every
	// real event match up the ancestor chain has been exhausted.
	EventAuto = "auto"

	// EventExitAllStates exits the current state and all of its ancestors.
	// No further processing happens afterwards.
	EventExitAllStates = "exit_all_states"

	// PathSeparator separates the segments of a fully qualified state path.
	PathSeparator = "."
)

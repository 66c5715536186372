package core

import "strings"

// DataFlowState is the lifecycle state of a transfer. Codes are stable and
// are the persisted representation.
type DataFlowState int

const (
	DataFlowStateNotTracked DataFlowState = 0
	DataFlowStateReceived   DataFlowState = 100
	DataFlowStateCompleted  DataFlowState = 200
	DataFlowStateFailed     DataFlowState = 300
	DataFlowStateNotified   DataFlowState = 400
)

var dataFlowStateNames = map[DataFlowState]string{
	DataFlowStateNotTracked: "not_tracked",
	DataFlowStateReceived:   "received",
	DataFlowStateCompleted:  "completed",
	DataFlowStateFailed:     "failed",
	DataFlowStateNotified:   "notified",
}

func (s DataFlowState) Code() int {
	return int(s)
}

func (s DataFlowState) String() string {
	if name, ok := dataFlowStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether a transfer in this state is never dispatched again.
func (s DataFlowState) Terminal() bool {
	switch s {
	case DataFlowStateCompleted, DataFlowStateFailed, DataFlowStateNotified:
		return true
	default:
		return false
	}
}

// DataFlowStateFrom maps a persisted code to its state. Unknown codes return
// false; they are never coerced into NotTracked.
func DataFlowStateFrom(code int) (DataFlowState, bool) {
	state := DataFlowState(code)
	if _, ok := dataFlowStateNames[state]; !ok {
		return 0, false
	}
	return state, true
}

func ParseDataFlowState(name string) (DataFlowState, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for state, candidate := range dataFlowStateNames {
		if candidate == name {
			return state, true
		}
	}
	return 0, false
}

func DataFlowStates() []DataFlowState {
	return []DataFlowState{
		DataFlowStateNotTracked,
		DataFlowStateReceived,
		DataFlowStateCompleted,
		DataFlowStateFailed,
		DataFlowStateNotified,
	}
}

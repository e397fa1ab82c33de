package engine

// State is the lifecycle position of an Engine.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateClearing
	StateBuilding
	StateWatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateClearing:
		return "clearing"
	case StateBuilding:
		return "building"
	case StateWatching:
		return "watching"
	default:
		return "unknown"
	}
}

package event

type GameAction int

const (
	ActionUnknown GameAction = iota
	ActionRotate
	ActionMoveLeft
	ActionMoveRight
	ActionSoftDrop
	ActionHardDrop
	ActionHold
	ActionPause
	ActionRestart
)

func (a GameAction) String() string {
	switch a {
	case ActionRotate:
		return "Rotate"
	case ActionMoveLeft:
		return "MoveLeft"
	case ActionMoveRight:
		return "MoveRight"
	case ActionSoftDrop:
		return "SoftDrop"
	case ActionHardDrop:
		return "HardDrop"
	case ActionHold:
		return "Hold"
	case ActionPause:
		return "Pause"
	case ActionRestart:
		return "Restart"
	default:
		return "Unknown"
	}
}

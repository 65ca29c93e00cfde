package event

// Status is the session state reported to the presentation layer.
type Status int

const (
	StatusStopped Status = iota
	StatusPaused
	StatusPlaying
	StatusGameOver
)

func (s Status) String() string {
	switch s {
	case StatusPaused:
		return " Game [P]aused. "
	case StatusPlaying:
		return " Playing. "
	case StatusGameOver:
		return " Game over. Press [Q]uit [R]estart"
	default:
		return ""
	}
}

// Sound is a discrete gameplay event an audio collaborator may play.
type Sound int

const (
	SoundRotate Sound = iota
	SoundMove
	SoundDrop
)

type DrawObject int

const (
	DrawAll DrawObject = iota
	DrawLocalBoard
	DrawOpponentBoard
	DrawStatus
	DrawLines
	DrawMessages
)

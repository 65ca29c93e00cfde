package protocol

import (
	"strings"
)

const (
	CommandPrefix    = '/'
	AltCommandPrefix = '#'
)

type Instruction int

const (
	InstructionUnknown Instruction = iota
	InstructionConnect
	InstructionDisconnect
	InstructionStart
	InstructionQuit
	InstructionGameOver
	InstructionSetHost
	InstructionSetPort
	InstructionGetHost
	InstructionGetPort
)

var instructions = map[string]Instruction{
	"connect":    InstructionConnect,
	"disconnect": InstructionDisconnect,
	"start":      InstructionStart,
	"quit":       InstructionQuit,
	"exit":       InstructionQuit,
	"gameover":   InstructionGameOver,
	"sethost":    InstructionSetHost,
	"setport":    InstructionSetPort,
	"gethost":    InstructionGetHost,
	"getport":    InstructionGetPort,
}

func (i Instruction) String() string {
	for name, in := range instructions {
		if in == i && name != "exit" {
			return name
		}
	}

	return "unknown"
}

// Command is a line of text that started with a command prefix.
type Command struct {
	Instruction Instruction

	// Name is the instruction token as typed, without the prefix.
	Name    string
	Operand string

	// Body is everything after the prefix.
	Body string
}

func IsCommand(text string) bool {
	return len(text) > 0 && (text[0] == CommandPrefix || text[0] == AltCommandPrefix)
}

// ParseCommand splits a prefixed line into its instruction and optional
// operand. It returns false when text does not start with a prefix.
func ParseCommand(text string) (Command, bool) {
	if !IsCommand(text) {
		return Command{}, false
	}

	c := Command{Body: text[1:]}

	fields := strings.Fields(c.Body)
	if len(fields) == 0 {
		return c, true
	}

	c.Name = fields[0]
	if len(fields) > 1 {
		c.Operand = fields[1]
	}
	c.Instruction = instructions[strings.ToLower(c.Name)]

	return c, true
}

// Forward is the text sent upstream for a command this side does not handle.
func (c Command) Forward() string {
	return string(CommandPrefix) + c.Body
}

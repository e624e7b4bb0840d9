// Package chat keeps the chat history shown beside the arena and parses
// what the player types.
package chat

import (
	"strings"
	"time"
)

// Line is one entry in the chat history.
type Line struct {
	Text string
	At   time.Time
}

// CommandType for routing typed lines.
type CommandType int

const (
	CmdNone  CommandType = iota // plain chat
	CmdClear                    // clears the local history, also sent to the server
	CmdPing                     // server answers PONG
	CmdOther                    // any other slash command, handled by the server
)

// SupportedCommands maps command names to types. Names match case-insensitively.
var SupportedCommands = map[string]CommandType{
	"clear": CmdClear,
	"ping":  CmdPing,
}

// Parse classifies a typed line.
func Parse(text string) CommandType {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return CmdNone
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return CmdOther
	}
	if t, ok := SupportedCommands[strings.ToLower(fields[0])]; ok {
		return t
	}
	return CmdOther
}

package accelstepper

import "slices"

// Command tokens.
const (
	CmdBonjour = "BONJOUR"

	CmdSetPosition         = "SP"
	CmdSetSpeed            = "SS"
	CmdSetMaxSpeed         = "S"
	CmdSetAcceleration     = "SA"
	CmdEnableAcceleration  = "EA"
	CmdDisableAcceleration = "DA"

	CmdMoveTo = "MT"
	CmdMove   = "M"
	CmdStop   = "X"

	CmdMoving          = "R"
	CmdDistanceToGo    = "Q"
	CmdTargetPosition  = "T"
	CmdCurrentPosition = "P"
	CmdSpeed           = "RS"
	CmdMaxSpeed        = "RMS"
	CmdAcceleration    = "RA"
)

// Tokens lists every command token a Device answers.
var Tokens = []string{
	CmdBonjour,
	CmdSetPosition, CmdSetSpeed, CmdSetMaxSpeed, CmdSetAcceleration,
	CmdEnableAcceleration, CmdDisableAcceleration,
	CmdMoveTo, CmdMove, CmdStop,
	CmdMoving, CmdDistanceToGo, CmdTargetPosition, CmdCurrentPosition,
	CmdSpeed, CmdMaxSpeed, CmdAcceleration,
}

// IsToken reports whether s is a command token. A device header equal to a
// token would take over that command when the device is the only one.
func IsToken(s string) bool {
	return slices.Contains(Tokens, s)
}

// BonjourID identifies this kind of device in the reply to CmdBonjour.
const BonjourID = "ACCELSTEPPER"

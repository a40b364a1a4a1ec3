package model

// Classification is the outcome of a single authentication attempt.
type Classification string

const (
	ClassificationNormal   Classification = "normal"
	ClassificationDuress   Classification = "duress"
	ClassificationRejected Classification = "rejected"
)

// WalletSelector chooses which wallet view an authentication unlocks.
type WalletSelector string

const (
	WalletReal  WalletSelector = "real"
	WalletDecoy WalletSelector = "decoy"
)

// EscalationLevel is the severity tier derived from the consecutive
// duress-trigger count. It controls notification timing.
type EscalationLevel int

const (
	LevelNone EscalationLevel = iota
	LevelSilent
	LevelDelayed
	LevelImmediate
)

// String returns the wire representation of the level.
func (l EscalationLevel) String() string {
	switch l {
	case LevelSilent:
		return "silent"
	case LevelDelayed:
		return "delayed"
	case LevelImmediate:
		return "immediate"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize
// as their names in JSON payloads.
func (l EscalationLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name back into its value.
func (l *EscalationLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "silent":
		*l = LevelSilent
	case "delayed":
		*l = LevelDelayed
	case "immediate":
		*l = LevelImmediate
	default:
		*l = LevelNone
	}
	return nil
}

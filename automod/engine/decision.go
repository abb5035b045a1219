package engine

import (
	"strings"
)

type Action string

const (
	ActionAllow Action = "allow"
	ActionKick  Action = "kick"
)

const (
	ReasonAccountTooNew     = "account too new"
	ReasonSuspiciousProfile = "suspicious profile"
)

// Outcome of vetting a single member. Never persisted.
type Decision struct {
	Action Action
	// Only set for ActionKick. Passed through to the platform as the removal reason.
	Reason string
}

func Allow() Decision {
	return Decision{Action: ActionAllow}
}

func Kick(reason string) Decision {
	return Decision{Action: ActionKick, Reason: reason}
}

func (d Decision) IsKick() bool {
	return d.Action == ActionKick
}

func (d Decision) String() string {
	if d.Reason == "" {
		return string(d.Action)
	}
	return string(d.Action) + "(" + d.Reason + ")"
}

// eg, "kick-account-too-new"
func (d Decision) Flag() string {
	if d.Reason == "" {
		return string(d.Action)
	}
	return string(d.Action) + "-" + strings.ReplaceAll(d.Reason, " ", "-")
}

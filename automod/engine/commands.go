package engine

import (
	"context"
	"fmt"

	"github.com/kickguard/bouncer/automod/whitelist"
)

type OutcomeKind string

const (
	OutcomeAdded          OutcomeKind = "added"
	OutcomeAlreadyPresent OutcomeKind = "already-present"
	OutcomeRemoved        OutcomeKind = "removed"
	OutcomeNotFound       OutcomeKind = "not-found"
)

// Result of a whitelist command, for presentation to the operator who ran it.
type Outcome struct {
	Kind     OutcomeKind `json:"outcome"`
	Username string      `json:"username"`
}

func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeAdded:
		return fmt.Sprintf("Added %s to the whitelist", o.Username)
	case OutcomeAlreadyPresent:
		return fmt.Sprintf("%s is already on the whitelist", o.Username)
	case OutcomeRemoved:
		return fmt.Sprintf("Removed %s from the whitelist", o.Username)
	case OutcomeNotFound:
		return fmt.Sprintf("%s is not on the whitelist", o.Username)
	default:
		return string(o.Kind)
	}
}

// Whitelist management operations exposed to an operator command layer.
//
// No authorization happens here. Callers are responsible for checking that the invoking account is an operator.
type Commands struct {
	Store *whitelist.Store
}

func (c *Commands) ListWhitelist() []whitelist.Entry {
	return c.Store.List()
}

func (c *Commands) AddWhitelist(ctx context.Context, username, reason string) (Outcome, error) {
	res, err := c.Store.Add(ctx, username, reason)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Kind: OutcomeAdded, Username: username}
	if res == whitelist.AlreadyPresent {
		out.Kind = OutcomeAlreadyPresent
	}
	return out, nil
}

func (c *Commands) RemoveWhitelist(ctx context.Context, username string) (Outcome, error) {
	res, err := c.Store.Remove(ctx, username)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Kind: OutcomeRemoved, Username: username}
	if res == whitelist.NotFound {
		out.Kind = OutcomeNotFound
	}
	return out, nil
}

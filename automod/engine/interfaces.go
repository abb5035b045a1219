package engine

import (
	"context"
)

type WhitelistChecker interface {
	Contains(identity string) bool
}

type ScamDetector interface {
	Detect(displayText string) bool
}

// Source of extended member data (global name, server nickname) which may be missing from the join event.
type ProfileFetcher interface {
	FetchMember(ctx context.Context, guildID, userID string) (*Member, error)
}

// Executes decisions against the platform. Delivery and retry semantics belong to the implementation.
type Gateway interface {
	SendNotice(ctx context.Context, m Member, text string) error
	RemoveMember(ctx context.Context, m Member, reason string) error
}

// Interface for a type that can handle sending moderator notifications
type Notifier interface {
	SendDecision(ctx context.Context, m Member, d Decision) error
}

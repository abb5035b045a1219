// Private per-account flags, recorded as an audit trail of automated actions.
//
// The vetting engine adds a flag (eg, "kick-account-too-new") under the member's identity key each time it removes someone, so moderators can see why an account was turned away.
package flagstore

import (
	"context"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}

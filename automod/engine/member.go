package engine

import (
	"time"

	"github.com/kickguard/bouncer/automod/keyword"
	"github.com/kickguard/bouncer/automod/whitelist"
)

// A newly-joined member, as delivered by the platform join event. Only the identity fields are carried; profile bio text is not available from the platform and is never inspected.
type Member struct {
	GuildID     string    `json:"guild_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	GlobalName  string    `json:"global_name,omitempty"`
	Nickname    string    `json:"nickname,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Per-event view of a member, derived from Member and discarded once a decision is made.
type MemberProfile struct {
	IdentityKey      string
	DisplayText      string
	AccountCreatedAt time.Time
}

func NewMemberProfile(m Member) MemberProfile {
	return MemberProfile{
		IdentityKey:      whitelist.NormalizeIdentity(m.Username),
		DisplayText:      keyword.FoldFields(m.DisplayName, m.Username, m.GlobalName, m.Nickname),
		AccountCreatedAt: m.CreatedAt,
	}
}

// Overlays the non-empty alias fields of an extended profile onto 'm'. Identity and creation time always come from the join event.
func (m Member) mergeProfile(ext *Member) Member {
	if ext == nil {
		return m
	}
	if ext.DisplayName != "" {
		m.DisplayName = ext.DisplayName
	}
	if ext.GlobalName != "" {
		m.GlobalName = ext.GlobalName
	}
	if ext.Nickname != "" {
		m.Nickname = ext.Nickname
	}
	return m
}

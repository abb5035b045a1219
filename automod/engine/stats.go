package engine

import (
	"context"
	"fmt"

	"github.com/kickguard/bouncer/automod/countstore"
)

// Recent vetting activity for one guild.
type GuildStats struct {
	GuildID string             `json:"guild_id"`
	Joins   countstore.Summary `json:"joins"`
	Removed countstore.Summary `json:"removed"`
	// distinct user IDs removed; can be lower than Removed if an account rejoined
	RemovedUsers countstore.Summary            `json:"removed_users"`
	ByReason     map[string]countstore.Summary `json:"by_reason"`
}

func (eng *Engine) GuildStats(ctx context.Context, guildID string) (*GuildStats, error) {
	if eng.Counters == nil {
		return nil, fmt.Errorf("no counter store configured")
	}
	var err error
	st := GuildStats{
		GuildID:  guildID,
		ByReason: make(map[string]countstore.Summary),
	}
	if st.Joins, err = countstore.Summarize(ctx, eng.Counters, "join", guildID); err != nil {
		return nil, err
	}
	if st.Removed, err = countstore.Summarize(ctx, eng.Counters, "removed", guildID); err != nil {
		return nil, err
	}
	if st.RemovedUsers, err = countstore.SummarizeDistinct(ctx, eng.Counters, "removed-user", guildID); err != nil {
		return nil, err
	}
	for _, reason := range []string{ReasonAccountTooNew, ReasonSuspiciousProfile} {
		sum, err := countstore.Summarize(ctx, eng.Counters, Kick(reason).Flag(), guildID)
		if err != nil {
			return nil, err
		}
		st.ByReason[reason] = sum
	}
	return &st, nil
}

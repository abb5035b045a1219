package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kickguard/bouncer/automod/cachestore"
	"github.com/kickguard/bouncer/automod/countstore"
	"github.com/kickguard/bouncer/automod/flagstore"
	"github.com/kickguard/bouncer/automod/keyword"
)

// Whitelist backed by a plain set of identity keys. Not safe for concurrent mutation; for tests only.
type StaticWhitelist map[string]bool

func (w StaticWhitelist) Contains(identity string) bool {
	return w[identity]
}

type GatewayCall struct {
	Op     string
	UserID string
	Arg    string
}

// Gateway which records every call, and can be told to fail.
type MockGateway struct {
	lk        sync.Mutex
	Calls     []GatewayCall
	NoticeErr error
	RemoveErr error
	// if set, only removals for this user ID fail
	RemoveErrUser string
}

func (g *MockGateway) SendNotice(ctx context.Context, m Member, text string) error {
	g.lk.Lock()
	defer g.lk.Unlock()
	g.Calls = append(g.Calls, GatewayCall{Op: "notice", UserID: m.UserID, Arg: text})
	return g.NoticeErr
}

func (g *MockGateway) RemoveMember(ctx context.Context, m Member, reason string) error {
	g.lk.Lock()
	defer g.lk.Unlock()
	g.Calls = append(g.Calls, GatewayCall{Op: "remove", UserID: m.UserID, Arg: reason})
	if g.RemoveErr != nil && (g.RemoveErrUser == "" || g.RemoveErrUser == m.UserID) {
		return g.RemoveErr
	}
	return nil
}

func (g *MockGateway) CallsFor(userID string) []GatewayCall {
	g.lk.Lock()
	defer g.lk.Unlock()
	out := []GatewayCall{}
	for _, c := range g.Calls {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Profile source with a fixed set of members, keyed by user ID.
type MockProfiles struct {
	lk      sync.Mutex
	Members map[string]Member
	Err     error
	Fetches int
}

func (p *MockProfiles) FetchMember(ctx context.Context, guildID, userID string) (*Member, error) {
	p.lk.Lock()
	defer p.lk.Unlock()
	p.Fetches++
	if p.Err != nil {
		return nil, p.Err
	}
	m, ok := p.Members[userID]
	if !ok {
		return nil, fmt.Errorf("unknown member: %s", userID)
	}
	return &m, nil
}

// Fixed "now" used by EngineTestFixture.
var FixtureNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func EngineTestFixture() (*Engine, *MockGateway) {
	gw := &MockGateway{}
	eng := Engine{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})),
		Whitelist:           StaticWhitelist{"trusted": true},
		Detector:            keyword.NewDetector(keyword.DefaultRules()),
		Gateway:             gw,
		Cache:               cachestore.NewMemCacheStore(10, time.Hour),
		Flags:               flagstore.NewMemFlagStore(),
		Counters:            countstore.NewMemCountStore(),
		MinAccountAgeMonths: DefaultMinAccountAgeMonths,
		Now:                 func() time.Time { return FixtureNow },
	}
	return &eng, gw
}

// Member in guild "g1" whose account was created 'months' calendar months before FixtureNow.
func FixtureMember(userID, username string, months int) Member {
	return Member{
		GuildID:   "g1",
		UserID:    userID,
		Username:  username,
		CreatedAt: FixtureNow.AddDate(0, -months, 0),
	}
}

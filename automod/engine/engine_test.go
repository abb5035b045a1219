package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingDetector struct {
	lk    sync.Mutex
	calls int
	inner ScamDetector
}

func (d *countingDetector) Detect(text string) bool {
	d.lk.Lock()
	d.calls++
	d.lk.Unlock()
	return d.inner.Detect(text)
}

type panicDetector struct{}

func (panicDetector) Detect(text string) bool {
	panic("detector exploded")
}

func TestEngineWhitelistPrecedence(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()

	m := FixtureMember("u1", "Trusted", 0)
	m.DisplayName = "coder scripter dev for hire commissions open dm for work"
	m.Nickname = "fivem dayz arma rust plugins"

	dec, err := eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Allow(), dec)
	assert.Empty(gw.Calls)
}

func TestEngineAgeBoundary(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := EngineTestFixture()

	dec, err := eng.Evaluate(ctx, FixtureMember("u1", "someone", DefaultMinAccountAgeMonths))
	assert.NoError(err)
	assert.Equal(Allow(), dec)

	dec, err = eng.Evaluate(ctx, FixtureMember("u2", "someone", DefaultMinAccountAgeMonths-1))
	assert.NoError(err)
	assert.Equal(Kick(ReasonAccountTooNew), dec)

	// day-of-month is ignored: last day of the month six months back still counts as six months
	m := FixtureMember("u3", "someone", 0)
	m.CreatedAt = time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	dec, err = eng.Evaluate(ctx, m)
	assert.NoError(err)
	assert.Equal(Allow(), dec)

	// created in the future reads as negative age
	m.CreatedAt = FixtureNow.AddDate(0, 2, 0)
	dec, err = eng.Evaluate(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonAccountTooNew), dec)
}

func TestEngineYoungAccountSkipsScamCheck(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	det := &countingDetector{inner: eng.Detector}
	eng.Detector = det

	m := FixtureMember("u1", "newbie", 3)
	m.DisplayName = "arma 3 scripter"

	dec, err := eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonAccountTooNew), dec)
	assert.Equal(0, det.calls)

	assert.Equal([]GatewayCall{
		{Op: "notice", UserID: "u1", Arg: DefaultNoticeText},
		{Op: "remove", UserID: "u1", Arg: "account too new"},
	}, gw.Calls)

	flags, err := eng.Flags.Get(ctx, "newbie")
	assert.NoError(err)
	assert.Equal([]string{"kick-account-too-new"}, flags)
}

func TestEngineOldAccountAllowed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()

	m := FixtureMember("u1", "regular", 24)
	m.DisplayName = "hello world"

	dec, err := eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Allow(), dec)
	assert.Empty(gw.Calls)
}

func TestEngineSuspiciousProfile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	eng.NoticeText = "bye"

	m := FixtureMember("u1", "xx_dayzcoder_xx", 24)
	dec, err := eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonSuspiciousProfile), dec)
	assert.Equal([]GatewayCall{
		{Op: "notice", UserID: "u1", Arg: "bye"},
		{Op: "remove", UserID: "u1", Arg: "suspicious profile"},
	}, gw.Calls)

	m = FixtureMember("u2", "gamer", 24)
	m.GlobalName = "FiveM enjoyer"
	m.Nickname = "DayZ fan"
	dec, err = eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonSuspiciousProfile), dec)

	m = FixtureMember("u3", "gamer", 24)
	m.GlobalName = "FiveM enjoyer"
	dec, err = eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Allow(), dec)
}

func TestEngineNoticeFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	gw.NoticeErr = fmt.Errorf("cannot send messages to this user")

	dec, err := eng.ProcessMemberJoin(ctx, FixtureMember("u1", "newbie", 1))
	assert.NoError(err)
	assert.Equal(Kick(ReasonAccountTooNew), dec)
	assert.Equal(2, len(gw.Calls))
	assert.Equal("remove", gw.Calls[1].Op)
}

func TestEngineRemoveFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	gw.RemoveErr = fmt.Errorf("missing permissions")

	dec, err := eng.ProcessMemberJoin(ctx, FixtureMember("u1", "newbie", 1))
	assert.Equal(Kick(ReasonAccountTooNew), dec)
	var aerr *ActionExecutionError
	assert.True(errors.As(err, &aerr))
	assert.Equal("u1", aerr.UserID)

	// removal is not retried
	assert.Equal(2, len(gw.CallsFor("u1")))

	flags, err := eng.Flags.Get(ctx, "newbie")
	assert.NoError(err)
	assert.Empty(flags)

	// engine keeps working for the next event
	gw.RemoveErr = nil
	dec, err = eng.ProcessMemberJoin(ctx, FixtureMember("u2", "other", 1))
	assert.NoError(err)
	assert.Equal(Kick(ReasonAccountTooNew), dec)
}

func TestEngineProfileFetch(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	profiles := &MockProfiles{
		Members: map[string]Member{
			"u1": {UserID: "u1", Username: "plain", Nickname: "fivem and dayz scripts"},
			"u2": {UserID: "u2", Username: "fine", GlobalName: "Just Fine"},
		},
	}
	eng.Profiles = profiles

	m := FixtureMember("u1", "plain", 12)
	dec, err := eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonSuspiciousProfile), dec)
	assert.Equal(1, profiles.Fetches)

	// second evaluation comes from the cache
	dec, err = eng.Evaluate(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonSuspiciousProfile), dec)
	assert.Equal(1, profiles.Fetches)

	dec, err = eng.ProcessMemberJoin(ctx, FixtureMember("u2", "fine", 12))
	assert.NoError(err)
	assert.Equal(Allow(), dec)

	// young accounts never reach the profile fetch
	_, err = eng.Evaluate(ctx, FixtureMember("u9", "young", 1))
	assert.NoError(err)
	assert.Equal(2, profiles.Fetches)

	assert.Equal(2, len(gw.Calls))
}

func TestEngineProfileFetchFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	eng.Profiles = &MockProfiles{Err: fmt.Errorf("service unavailable")}

	// nothing suspicious in the join event itself: inconclusive, allowed
	dec, err := eng.ProcessMemberJoin(ctx, FixtureMember("u1", "plain", 12))
	assert.Equal(Allow(), dec)
	var pfe *ProfileFetchError
	assert.True(errors.As(err, &pfe))
	assert.Empty(gw.Calls)

	// the join event text is still scanned when the fetch fails
	dec, err = eng.ProcessMemberJoin(ctx, FixtureMember("u2", "DayZ Coder", 24))
	assert.NoError(err)
	assert.Equal(Kick(ReasonSuspiciousProfile), dec)
	assert.Equal([]GatewayCall{
		{Op: "notice", UserID: "u2", Arg: DefaultNoticeText},
		{Op: "remove", UserID: "u2", Arg: ReasonSuspiciousProfile},
	}, gw.CallsFor("u2"))

	// age check still applies before the fetch
	dec, err = eng.ProcessMemberJoin(ctx, FixtureMember("u3", "young", 1))
	assert.NoError(err)
	assert.Equal(Kick(ReasonAccountTooNew), dec)
}

func TestEngineImplausibleCreation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()

	m := FixtureMember("u1", "mystery", 0)
	m.CreatedAt = time.Time{}
	dec, err := eng.ProcessMemberJoin(ctx, m)
	assert.Error(err)
	assert.Equal(Allow(), dec)
	assert.Empty(gw.Calls)

	// a pre-platform timestamp skips the age gate but not the scam check
	m = FixtureMember("u2", "DayZ Coder", 0)
	m.CreatedAt = time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC)
	dec, err = eng.ProcessMemberJoin(ctx, m)
	assert.NoError(err)
	assert.Equal(Kick(ReasonSuspiciousProfile), dec)
	assert.Equal(2, len(gw.CallsFor("u2")))
}

func TestEnginePanicRecovery(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	eng.Detector = panicDetector{}

	dec, err := eng.ProcessMemberJoin(ctx, FixtureMember("u1", "someone", 24))
	assert.Error(err)
	assert.Equal(Allow(), dec)
	assert.Empty(gw.Calls)
}

func TestEngineConcurrentEvents(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, gw := EngineTestFixture()
	gw.RemoveErr = fmt.Errorf("unknown member")
	gw.RemoveErrUser = "young-0"

	var wg sync.WaitGroup
	results := make([]Decision, 20)
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var m Member
			if i%2 == 0 {
				m = FixtureMember(fmt.Sprintf("young-%d", i), fmt.Sprintf("young%d", i), 1)
			} else {
				m = FixtureMember(fmt.Sprintf("old-%d", i), fmt.Sprintf("old%d", i), 36)
			}
			results[i], errs[i] = eng.ProcessMemberJoin(ctx, m)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			assert.Equal(Kick(ReasonAccountTooNew), results[i])
		} else {
			assert.Equal(Allow(), results[i])
		}
		if i == 0 {
			assert.Error(errs[i])
		} else {
			assert.NoError(errs[i])
		}
	}
	// notice + remove for each of the ten young accounts
	assert.Equal(20, len(gw.Calls))
}

type recordingNotifier struct {
	decisions []Decision
}

func (n *recordingNotifier) SendDecision(ctx context.Context, m Member, d Decision) error {
	n.decisions = append(n.decisions, d)
	return fmt.Errorf("webhook down")
}

func TestEngineNotifier(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := EngineTestFixture()
	n := &recordingNotifier{}
	eng.Notifier = n

	_, err := eng.ProcessMemberJoin(ctx, FixtureMember("u1", "regular", 24))
	assert.NoError(err)
	// notifier failure does not surface as an event error
	_, err = eng.ProcessMemberJoin(ctx, FixtureMember("u2", "newbie", 0))
	assert.NoError(err)
	assert.Equal([]Decision{Kick(ReasonAccountTooNew)}, n.decisions)
}

func TestNewMemberProfile(t *testing.T) {
	assert := assert.New(t)

	m := Member{
		Username:    " SomeUser ",
		DisplayName: "Some Ünicode",
		Nickname:    "NICK",
	}
	p := NewMemberProfile(m)
	assert.Equal("someuser", p.IdentityKey)
	assert.Equal("some unicode someuser nick", p.DisplayText)

	assert.Equal("kick-suspicious-profile", Kick(ReasonSuspiciousProfile).Flag())
	assert.Equal("allow", Allow().Flag())
	assert.Equal("kick(account too new)", Kick(ReasonAccountTooNew).String())
}

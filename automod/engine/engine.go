package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kickguard/bouncer/automod/cachestore"
	"github.com/kickguard/bouncer/automod/countstore"
	"github.com/kickguard/bouncer/automod/flagstore"
	"github.com/kickguard/bouncer/automod/helpers"
)

const (
	DefaultMinAccountAgeMonths = 6
	DefaultNoticeText          = "You have been removed from the server because your account did not pass our new-member checks. If you believe this is a mistake, ask a moderator to add you to the whitelist."
)

// runtime for vetting new members and executing the resulting decisions.
//
// Whitelist, Detector and Gateway are required. Profiles, Cache, Flags, Counters and Notifier are optional and skipped when nil. The engine holds no per-event state, so ProcessMemberJoin may be called concurrently.
type Engine struct {
	Logger    *slog.Logger
	Whitelist WhitelistChecker
	Detector  ScamDetector
	Gateway   Gateway
	Profiles  ProfileFetcher
	Cache     cachestore.CacheStore
	Flags     flagstore.FlagStore
	Counters  countstore.CountStore
	Notifier  Notifier

	MinAccountAgeMonths int
	NoticeText          string
	// time source for account age; defaults to time.Now
	Now func() time.Time
}

func (eng *Engine) now() time.Time {
	if eng.Now != nil {
		return eng.Now()
	}
	return time.Now()
}

func (eng *Engine) logger() *slog.Logger {
	if eng.Logger != nil {
		return eng.Logger
	}
	return slog.Default()
}

// Runs the checks for one member, in order: whitelist, account age, scam signal. The first check to reach a decision ends evaluation.
//
// Does not execute the decision. A non-nil error means the evaluation was inconclusive; callers must not act on the returned decision in that case. An implausible creation time or a failed profile fetch only removes signal: the scam check still runs on the join event's own text, and a hit there is a conclusive Kick.
func (eng *Engine) Evaluate(ctx context.Context, m Member) (Decision, error) {
	prof := NewMemberProfile(m)

	// whitelisted accounts are exempt from every other check
	if eng.Whitelist.Contains(prof.IdentityKey) {
		return Allow(), nil
	}

	var inconclusive error
	if helpers.PlausibleAccountCreation(prof.AccountCreatedAt) {
		age := helpers.AccountAgeMonths(prof.AccountCreatedAt, eng.now())
		if age < eng.MinAccountAgeMonths {
			return Kick(ReasonAccountTooNew), nil
		}
	} else {
		inconclusive = fmt.Errorf("implausible account creation time for %s: %s", m.UserID, prof.AccountCreatedAt)
	}

	if eng.Profiles != nil {
		ext, err := eng.fetchProfile(ctx, m)
		if err != nil {
			pfe := &ProfileFetchError{UserID: m.UserID, Err: err}
			eventErrorCount.WithLabelValues("profile-fetch").Inc()
			eng.logger().Warn("member profile fetch failed, checking join event text only", "err", pfe, "user", m.UserID)
			inconclusive = errors.Join(inconclusive, pfe)
		} else {
			prof = NewMemberProfile(m.mergeProfile(ext))
		}
	}

	if eng.Detector.Detect(prof.DisplayText) {
		return Kick(ReasonSuspiciousProfile), nil
	}
	return Allow(), inconclusive
}

// Vets one join event and executes the decision. This is the per-event failure boundary: panics are recovered, and no error here affects any other event.
//
// Inconclusive evaluations are logged and treated as Allow. For a Kick, the notice is best-effort; the removal is attempted once, and a failure is returned as an *ActionExecutionError.
func (eng *Engine) ProcessMemberJoin(ctx context.Context, m Member) (dec Decision, err error) {
	start := time.Now()
	logger := eng.logger().With("guild", m.GuildID, "user", m.UserID, "username", m.Username)

	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			logger.Error("vetting execution exception", "err", r)
			eventErrorCount.WithLabelValues("panic").Inc()
			dec = Allow()
			err = fmt.Errorf("vetting execution exception: %v", r)
		}
		eventProcessDuration.Observe(time.Since(start).Seconds())
	}()

	eng.count(ctx, logger, "join", m.GuildID)

	dec, err = eng.Evaluate(ctx, m)
	if err != nil {
		var pfe *ProfileFetchError
		if !errors.As(err, &pfe) {
			eventErrorCount.WithLabelValues("evaluate").Inc()
		}
		logger.Warn("member vetting inconclusive, allowing", "err", err)
		return Allow(), err
	}
	decisionCount.WithLabelValues(string(dec.Action), dec.Reason).Inc()

	if !dec.IsKick() {
		logger.Info("member allowed", "account_created", m.CreatedAt)
		return dec, nil
	}

	logger.Warn("removing member", "reason", dec.Reason, "account_created", m.CreatedAt)
	return dec, eng.execute(ctx, logger, m, dec)
}

func (eng *Engine) execute(ctx context.Context, logger *slog.Logger, m Member, dec Decision) error {
	notice := eng.NoticeText
	if notice == "" {
		notice = DefaultNoticeText
	}
	if err := eng.Gateway.SendNotice(ctx, m, notice); err != nil {
		nerr := &NotificationDeliveryError{UserID: m.UserID, Err: err}
		eventErrorCount.WithLabelValues("notice").Inc()
		logger.Info("could not deliver removal notice", "err", nerr)
	}

	if err := eng.Gateway.RemoveMember(ctx, m, dec.Reason); err != nil {
		aerr := &ActionExecutionError{UserID: m.UserID, Action: dec.Action, Err: err}
		eventErrorCount.WithLabelValues("action").Inc()
		logger.Error("failed to remove member", "err", aerr)
		return aerr
	}
	actionCount.WithLabelValues(dec.Reason).Inc()
	eng.count(ctx, logger, "removed", m.GuildID)
	eng.count(ctx, logger, dec.Flag(), m.GuildID)
	if eng.Counters != nil {
		if err := eng.Counters.IncrementDistinct(ctx, "removed-user", m.GuildID, m.UserID); err != nil {
			logger.Warn("failed to update distinct counter", "err", err)
		}
	}

	if eng.Flags != nil {
		if err := eng.Flags.Add(ctx, identityKey(m), []string{dec.Flag()}); err != nil {
			logger.Warn("failed to record flag", "err", err)
		}
	}
	if eng.Notifier != nil {
		if err := eng.Notifier.SendDecision(ctx, m, dec); err != nil {
			logger.Warn("failed to send moderator notification", "err", err)
		}
	}
	return nil
}

func (eng *Engine) count(ctx context.Context, logger *slog.Logger, name, guildID string) {
	if eng.Counters == nil {
		return
	}
	if err := eng.Counters.Increment(ctx, name, guildID); err != nil {
		logger.Warn("failed to update counter", "name", name, "err", err)
	}
}

func identityKey(m Member) string {
	return NewMemberProfile(m).IdentityKey
}

// Fetches extended member data, going through the cache when one is configured. Cache failures are logged and bypassed.
func (eng *Engine) fetchProfile(ctx context.Context, m Member) (*Member, error) {
	cacheKey := m.GuildID + "/" + m.UserID
	if eng.Cache != nil {
		var cached Member
		ok, err := cachestore.GetJSON(ctx, eng.Cache, "member", cacheKey, &cached)
		if err != nil {
			eng.logger().Warn("member profile cache read failed", "err", err, "user", m.UserID)
		} else if ok {
			return &cached, nil
		}
	}

	profileFetchCount.Inc()
	ext, err := eng.Profiles.FetchMember(ctx, m.GuildID, m.UserID)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, fmt.Errorf("member not found: %s", m.UserID)
	}

	if eng.Cache != nil {
		if err := cachestore.SetJSON(ctx, eng.Cache, "member", cacheKey, ext); err != nil {
			eng.logger().Warn("member profile cache write failed", "err", err, "user", m.UserID)
		}
	}
	return ext, nil
}

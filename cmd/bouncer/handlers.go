package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kickguard/bouncer/automod/engine"
	"github.com/kickguard/bouncer/automod/helpers"
	"github.com/kickguard/bouncer/automod/whitelist"
	"github.com/kickguard/bouncer/discord"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
)

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

type WhitelistListResponse struct {
	Entries []whitelist.Entry `json:"entries"`
}

type WhitelistAddRequest struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type OutcomeResponse struct {
	engine.Outcome
	Message string `json:"message"`
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= 500 {
		s.logger.Warn("bouncer-http-internal-error", "err", err)
	}
	if !c.Response().Committed {
		c.JSON(code, GenericStatus{Daemon: "bouncer", Status: "error", Message: msg})
	}
}

func (s *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "bouncer"})
}

// Accepts a join event and vets the member in the background. Each event is processed independently; the response does not wait for the decision.
func (s *Server) HandleMemberJoin(c echo.Context) error {
	joinsReceived.Inc()
	var m engine.Member
	if err := c.Bind(&m); err != nil {
		joinsRejected.Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid join event body")
	}
	if m.GuildID == "" || m.UserID == "" || m.Username == "" {
		joinsRejected.Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "guild_id, user_id and username are required")
	}
	if m.CreatedAt.IsZero() {
		created, err := discord.SnowflakeTime(m.UserID)
		if err != nil {
			joinsRejected.Inc()
			return echo.NewHTTPError(http.StatusBadRequest, "created_at missing and user_id is not a snowflake")
		}
		m.CreatedAt = created
	}
	if !helpers.PlausibleAccountCreation(m.CreatedAt) {
		joinsRejected.Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "created_at predates the platform")
	}

	s.inflight.Add(1)
	joinsInFlight.Inc()
	go func() {
		defer s.inflight.Done()
		defer joinsInFlight.Dec()
		// detached from the request, which completes before vetting does
		ctx, span := tracer.Start(context.Background(), "ProcessMemberJoin")
		defer span.End()
		span.SetAttributes(attribute.String("guild", m.GuildID), attribute.String("user", m.UserID))

		dec, err := s.engine.ProcessMemberJoin(ctx, m)
		span.SetAttributes(attribute.String("decision", dec.String()))
		if err != nil {
			span.RecordError(err)
		}
	}()

	return c.JSON(http.StatusAccepted, GenericStatus{Daemon: "bouncer", Status: "accepted"})
}

func (s *Server) HandleListWhitelist(c echo.Context) error {
	return c.JSON(http.StatusOK, WhitelistListResponse{Entries: s.commands.ListWhitelist()})
}

func (s *Server) HandleAddWhitelist(c echo.Context) error {
	var req WhitelistAddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Reason) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and reason are required")
	}
	out, err := s.commands.AddWhitelist(c.Request().Context(), req.Username, req.Reason)
	if err != nil {
		return commandError(err)
	}
	return c.JSON(http.StatusOK, OutcomeResponse{Outcome: out, Message: out.Message()})
}

func (s *Server) HandleRemoveWhitelist(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	out, err := s.commands.RemoveWhitelist(c.Request().Context(), username)
	if err != nil {
		return commandError(err)
	}
	return c.JSON(http.StatusOK, OutcomeResponse{Outcome: out, Message: out.Message()})
}

func (s *Server) HandleGuildStats(c echo.Context) error {
	st, err := s.engine.GuildStats(c.Request().Context(), c.Param("guild"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func commandError(err error) error {
	if errors.Is(err, whitelist.ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var perr *whitelist.PersistenceError
	if errors.As(err, &perr) {
		return echo.NewHTTPError(http.StatusInternalServerError, "whitelist could not be saved; no change was made").SetInternal(err)
	}
	return err
}

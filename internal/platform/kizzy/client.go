// Package kizzy is the REST client for the Kizzy prediction-market platform.
// Every call goes through the endpoint resolver, which tries historically
// valid path variants in order, because the platform's stable API surface
// drifts across versions.
package kizzy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// Client exposes the market, wager, and reward operations of one account's
// authenticated session.
type Client struct {
	appHost  string
	restHost string
	ch       domain.RequestChannel
	logger   *slog.Logger
}

// NewClient creates a Client that executes every operation over the given
// session channel.
//
// appHost is the versioned API root, e.g. "https://testnet.kizzy.io";
// restHost is the bet/reward REST root, e.g. "https://rest-api.kizzy.io".
func NewClient(appHost, restHost string, ch domain.RequestChannel, logger *slog.Logger) *Client {
	return &Client{
		appHost:  appHost,
		restHost: restHost,
		ch:       ch,
		logger:   logger.With(slog.String("component", "kizzy_client")),
	}
}

// AuthSnapshot fetches the account's authentication/position snapshot. A
// rejected session surfaces as ErrAuthenticationFailed; any other
// exhaustion yields the zero snapshot (not an error), so "no data" and
// "fetch failed" both mean the tracker starts empty.
func (c *Client) AuthSnapshot(ctx context.Context) (domain.AuthSnapshot, error) {
	resp, err := resolve[apiAuthResponse](ctx, c.ch, []domain.Request{
		{Method: http.MethodGet, URL: c.appHost + "/api/v2/auth"},
		{Method: http.MethodGet, URL: c.appHost + "/api/v2/auth/session"},
		{Method: http.MethodGet, URL: c.appHost + "/api/v1/auth"},
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			return domain.AuthSnapshot{}, fmt.Errorf("kizzy: auth snapshot: %w", err)
		}
		c.logger.WarnContext(ctx, "auth snapshot unavailable", slog.String("error", err.Error()))
		return domain.AuthSnapshot{}, nil
	}
	return resp.toDomain(), nil
}

// Pools fetches the open parimutuel pools for a platform. Resolver
// exhaustion yields an empty slice so one transient gap skips a round
// instead of failing the run.
func (c *Client) Pools(ctx context.Context, platform string) []domain.Pool {
	p := url.PathEscape(platform)
	resp, err := resolve[apiPoolsResponse](ctx, c.ch, []domain.Request{
		{Method: http.MethodGet, URL: c.appHost + "/api/v2/pvp/" + p},
		{Method: http.MethodGet, URL: c.appHost + "/api/v2/pools/" + p},
		{Method: http.MethodGet, URL: c.appHost + "/api/v1/pvp/" + p},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "pools unavailable",
			slog.String("platform", platform),
			slog.String("error", err.Error()),
		)
		return nil
	}
	pools := make([]domain.Pool, 0, len(resp.PoolsData))
	for _, p := range resp.PoolsData {
		pools = append(pools, p.toDomain())
	}
	return pools
}

// Spreads fetches the open spread markets for a platform. Resolver
// exhaustion yields an empty slice.
func (c *Client) Spreads(ctx context.Context, platform string) []domain.Spread {
	resp, err := resolve[apiSpreadsResponse](ctx, c.ch, []domain.Request{
		{Method: http.MethodGet, URL: c.appHost + "/api/v2/spreads/" + url.PathEscape(platform)},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "spreads unavailable",
			slog.String("platform", platform),
			slog.String("error", err.Error()),
		)
		return nil
	}
	spreads := make([]domain.Spread, 0, len(resp.SpreadsData))
	for _, s := range resp.SpreadsData {
		spreads = append(spreads, s.toDomain())
	}
	return spreads
}

// PlacePoolBet submits a wager on one side of a pool. Success requires both
// a well-formed response and the nested application-level success flag; any
// transport, decode, or application failure collapses into a single error
// because a pool wager is never retried within a run.
func (c *Client) PlacePoolBet(ctx context.Context, poolID int64, side domain.Side, amount int) error {
	payload, err := json.Marshal(poolBetPayload{
		Side:             string(side),
		Amount:           amount,
		ParimutuelPoolID: poolID,
	})
	if err != nil {
		return fmt.Errorf("kizzy: encode pool bet: %w", err)
	}

	resp, err := resolve[apiPoolBetResponse](ctx, c.ch, []domain.Request{
		{
			Method:      http.MethodPost,
			URL:         fmt.Sprintf("%s/app/place-bet-pvp/%d", c.restHost, poolID),
			ContentType: "application/json",
			Body:        payload,
		},
	})
	if err != nil {
		return fmt.Errorf("kizzy: pool bet %d: %w", poolID, err)
	}
	if !resp.Data.Success {
		return fmt.Errorf("kizzy: pool bet %d rejected by platform", poolID)
	}
	return nil
}

// PlaceSpreadBet submits a wager on one spread range. Three body encodings
// are tried in order (JSON, multipart form, urlencoded form); the platform
// has accepted different encodings across versions. Success is inferred
// from a well-formed decode alone, there is no explicit success flag.
func (c *Client) PlaceSpreadBet(ctx context.Context, rangeID int64, amount int) error {
	jsonBody, err := json.Marshal(spreadBetPayload{SpreadPoolRangeID: rangeID, Amount: amount})
	if err != nil {
		return fmt.Errorf("kizzy: encode spread bet: %w", err)
	}

	formBody, formType, err := spreadBetForm(rangeID, amount)
	if err != nil {
		return fmt.Errorf("kizzy: encode spread bet form: %w", err)
	}

	values := url.Values{}
	values.Set("spreadPoolRangeID", strconv.FormatInt(rangeID, 10))
	values.Set("amount", strconv.Itoa(amount))

	target := c.appHost + "/api/v2/place-bet/spread"
	_, err = resolve[struct{}](ctx, c.ch, []domain.Request{
		{Method: http.MethodPost, URL: target, ContentType: "application/json", Body: jsonBody},
		{Method: http.MethodPost, URL: target, ContentType: formType, Body: formBody},
		{Method: http.MethodPost, URL: target, ContentType: "application/x-www-form-urlencoded", Body: []byte(values.Encode())},
	})
	if err != nil {
		return fmt.Errorf("kizzy: spread bet %d: %w", rangeID, err)
	}
	return nil
}

// Rewards fetches the mission batch and its reward cycle. Resolver
// exhaustion yields an empty batch.
func (c *Client) Rewards(ctx context.Context) ([]domain.Mission, domain.RewardCycle) {
	resp, err := resolve[apiRewardsResponse](ctx, c.ch, []domain.Request{
		{Method: http.MethodGet, URL: c.restHost + "/app/reward?main_tab=missions"},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "rewards unavailable", slog.String("error", err.Error()))
		return nil, domain.RewardCycle{}
	}

	missions := make([]domain.Mission, 0, len(resp.Data.Missions))
	for _, m := range resp.Data.Missions {
		missions = append(missions, domain.Mission{
			ID:           m.ID,
			Title:        m.Title,
			Reward:       float64(m.Reward),
			ClaimEnabled: m.ClaimEnabled,
			Claimed:      m.Claimed,
			CycleID:      m.Metrics.CycleID,
		})
	}
	return missions, domain.RewardCycle{ID: resp.Data.CycleData.ID, Released: resp.Data.CycleData.Released}
}

// ClaimCycle attempts the cycle-level claim. Claiming a non-released cycle
// is tolerated upstream as a no-op failure; the caller must not abort on
// error.
func (c *Client) ClaimCycle(ctx context.Context, cycleID int64) error {
	return c.claim(ctx, claimPayload{Action: "claim-cycle", MissionCredID: 0, CycleID: cycleID})
}

// ClaimMission attempts an individual mission claim carrying the mission's
// resolved cycle id.
func (c *Client) ClaimMission(ctx context.Context, missionID, cycleID int64) error {
	return c.claim(ctx, claimPayload{Action: "claim-mission-rewards", MissionCredID: missionID, CycleID: cycleID})
}

func (c *Client) claim(ctx context.Context, payload claimPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kizzy: encode claim: %w", err)
	}
	_, err = resolve[struct{}](ctx, c.ch, []domain.Request{
		{
			Method:      http.MethodPost,
			URL:         c.restHost + "/app/reward",
			ContentType: "application/json",
			Body:        body,
		},
	})
	if err != nil {
		return fmt.Errorf("kizzy: claim %s: %w", payload.Action, err)
	}
	return nil
}

// spreadBetForm builds the multipart/form-data body the legacy spread-bet
// endpoint expects, returning the body and its boundary-bearing content type.
func spreadBetForm(rangeID int64, amount int) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("spreadPoolRangeID", strconv.FormatInt(rangeID, 10)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("amount", strconv.Itoa(amount)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

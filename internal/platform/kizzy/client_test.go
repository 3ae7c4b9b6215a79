package kizzy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingChannel scripts responses by URL substring and records requests.
type recordingChannel struct {
	respond  func(req domain.Request) ([]byte, error)
	requests []domain.Request
}

func (c *recordingChannel) Execute(_ context.Context, req domain.Request) ([]byte, error) {
	c.requests = append(c.requests, req)
	return c.respond(req)
}

func (c *recordingChannel) Warm(context.Context) error { return nil }
func (c *recordingChannel) Close() error               { return nil }

func TestAuthSnapshotEmptyOnFailure(t *testing.T) {
	ch := &recordingChannel{respond: func(domain.Request) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	snap, err := c.AuthSnapshot(context.Background())
	if err != nil {
		t.Fatalf("AuthSnapshot() transient failure = %v, want nil", err)
	}
	if snap.WalletAddress != "" || len(snap.PoolBetIDs) != 0 || len(snap.SpreadRangeIDs) != 0 {
		t.Errorf("AuthSnapshot on failure = %+v, want zero value", snap)
	}
	// All three historical auth paths must be attempted.
	if len(ch.requests) != 3 {
		t.Errorf("auth candidates tried = %d, want 3", len(ch.requests))
	}
}

func TestAuthSnapshotSurfacesAuthFailure(t *testing.T) {
	ch := &recordingChannel{respond: func(domain.Request) ([]byte, error) {
		return nil, domain.ErrAuthenticationFailed
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	if _, err := c.AuthSnapshot(context.Background()); !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("AuthSnapshot() error = %v, want ErrAuthenticationFailed", err)
	}
	// A dead session short-circuits the candidate loop.
	if len(ch.requests) != 1 {
		t.Errorf("auth candidates tried = %d, want 1", len(ch.requests))
	}
}

func TestPoolsDecodesVolumes(t *testing.T) {
	ch := &recordingChannel{respond: func(req domain.Request) ([]byte, error) {
		if !strings.Contains(req.URL, "/api/v2/pvp/twitter") {
			return nil, context.DeadlineExceeded
		}
		// Volumes arrive as strings from some API versions.
		return []byte(`{"poolsData":[{"ID":5,"title":"t","longs":"12.5","shorts":3}]}`), nil
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	pools := c.Pools(context.Background(), "twitter")
	if len(pools) != 1 {
		t.Fatalf("pools = %d, want 1", len(pools))
	}
	if pools[0].ID != 5 || pools[0].Longs != 12.5 || pools[0].Shorts != 3 {
		t.Errorf("pool = %+v", pools[0])
	}
}

func TestPlacePoolBetRequiresSuccessFlag(t *testing.T) {
	ch := &recordingChannel{respond: func(domain.Request) ([]byte, error) {
		return []byte(`{"data":{"success":false}}`), nil
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	err := c.PlacePoolBet(context.Background(), 42, domain.SideLong, 15)
	if err == nil {
		t.Fatal("PlacePoolBet() with success=false returned nil error")
	}

	req := ch.requests[0]
	if req.URL != "https://rest/app/place-bet-pvp/42" {
		t.Errorf("URL = %q", req.URL)
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["side"] != "long" || body["amount"] != float64(15) || body["parimutuelPoolID"] != float64(42) {
		t.Errorf("body = %v", body)
	}
}

func TestPlaceSpreadBetWellFormedDecodeIsSuccess(t *testing.T) {
	ch := &recordingChannel{respond: func(domain.Request) ([]byte, error) {
		// No success flag anywhere in the response.
		return []byte(`{"anything":"goes"}`), nil
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	if err := c.PlaceSpreadBet(context.Background(), 7, 30); err != nil {
		t.Fatalf("PlaceSpreadBet() error = %v", err)
	}
	if len(ch.requests) != 1 {
		t.Fatalf("requests = %d, want 1 (first encoding accepted)", len(ch.requests))
	}
	if ch.requests[0].ContentType != "application/json" {
		t.Errorf("ContentType = %q", ch.requests[0].ContentType)
	}
}

func TestPlaceSpreadBetFallsBackThroughEncodings(t *testing.T) {
	ch := &recordingChannel{respond: func(req domain.Request) ([]byte, error) {
		if req.ContentType == "application/x-www-form-urlencoded" {
			return []byte(`{}`), nil
		}
		return nil, context.DeadlineExceeded
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	if err := c.PlaceSpreadBet(context.Background(), 7, 30); err != nil {
		t.Fatalf("PlaceSpreadBet() error = %v", err)
	}
	if len(ch.requests) != 3 {
		t.Fatalf("requests = %d, want 3 encodings in order", len(ch.requests))
	}
	if !strings.HasPrefix(ch.requests[1].ContentType, "multipart/form-data") {
		t.Errorf("second encoding ContentType = %q, want multipart", ch.requests[1].ContentType)
	}
	if got := string(ch.requests[2].Body); got != "amount=30&spreadPoolRangeID=7" {
		t.Errorf("urlencoded body = %q", got)
	}
}

func TestRewardsClaimPayloads(t *testing.T) {
	ch := &recordingChannel{respond: func(domain.Request) ([]byte, error) {
		return []byte(`{}`), nil
	}}
	c := NewClient("https://app", "https://rest", ch, discardLogger())

	if err := c.ClaimCycle(context.Background(), 7); err != nil {
		t.Fatalf("ClaimCycle() error = %v", err)
	}
	if err := c.ClaimMission(context.Background(), 3, 7); err != nil {
		t.Fatalf("ClaimMission() error = %v", err)
	}

	var cycle, mission map[string]any
	if err := json.Unmarshal(ch.requests[0].Body, &cycle); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(ch.requests[1].Body, &mission); err != nil {
		t.Fatal(err)
	}
	if cycle["_action"] != "claim-cycle" || cycle["cycleID"] != float64(7) || cycle["missionCredID"] != float64(0) {
		t.Errorf("cycle payload = %v", cycle)
	}
	if mission["_action"] != "claim-mission-rewards" || mission["missionCredID"] != float64(3) {
		t.Errorf("mission payload = %v", mission)
	}
}

func TestFlexTimeTolerance(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want func(t time.Time) bool
	}{
		{"rfc3339", `"2026-09-01T12:00:00Z"`, func(tm time.Time) bool {
			return tm.Equal(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
		}},
		{"unix seconds", `1756728000`, func(tm time.Time) bool {
			return tm.Equal(time.Unix(1756728000, 0).UTC())
		}},
		{"null", `null`, func(tm time.Time) bool { return tm.IsZero() }},
		{"garbage string", `"soon"`, func(tm time.Time) bool { return tm.IsZero() }},
		{"zero", `0`, func(tm time.Time) bool { return tm.IsZero() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft flexTime
			if err := json.Unmarshal([]byte(tt.in), &ft); err != nil {
				t.Fatalf("UnmarshalJSON(%s) error = %v", tt.in, err)
			}
			if !tt.want(ft.Time) {
				t.Errorf("UnmarshalJSON(%s) = %v", tt.in, ft.Time)
			}
		})
	}
}

func TestSpreadInert(t *testing.T) {
	now := time.Now()
	ranges := []domain.SpreadRange{{ID: 1, Odds: 2}}

	tests := []struct {
		name   string
		spread domain.Spread
		want   bool
	}{
		{"open", domain.Spread{ClosesAt: now.Add(time.Hour), Ranges: ranges}, false},
		{"expired", domain.Spread{ClosesAt: now.Add(-time.Minute), Ranges: ranges}, true},
		{"no deadline", domain.Spread{Ranges: ranges}, true},
		{"no ranges", domain.Spread{ClosesAt: now.Add(time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spread.Inert(now); got != tt.want {
				t.Errorf("Inert() = %v, want %v", got, tt.want)
			}
		})
	}
}

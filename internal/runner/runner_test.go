package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/domain"
	"github.com/alanyoungcy/kizzybot/internal/service"
	"github.com/alanyoungcy/kizzybot/internal/session"
	"github.com/alanyoungcy/kizzybot/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePlatform is an httptest-backed stand-in for the whole platform API.
type fakePlatform struct {
	mu          sync.Mutex
	poolBets    []string // URL paths of pool bet submissions
	spreadBets  int
	claims      int
	rejectAuth  bool
	snapshotIDs struct {
		pools  []int64
		ranges []int64
	}
}

func (p *fakePlatform) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if p.rejectAuth {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/v2/auth", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"walletAddress":                  "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
			"preMarketBetIDs":                p.snapshotIDs.pools,
			"activeSpreadRangesPositionsIDS": p.snapshotIDs.ranges,
		})
	})
	mux.HandleFunc("GET /api/v2/pvp/twitter", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"poolsData":[
			{"ID":1,"title":"held","longs":10,"shorts":2},
			{"ID":2,"title":"fresh","longs":3,"shorts":9}
		]}`)
	})
	mux.HandleFunc("GET /api/v2/spreads/twitter", func(w http.ResponseWriter, r *http.Request) {
		future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, `{"spreadsData":[
			{"ID":1,"title":"open","closesAt":%q,"spreadRanges":[
				{"id":10,"odds":2.0},{"id":11,"odds":4.0}
			]},
			{"ID":2,"title":"expired","closesAt":%q,"spreadRanges":[
				{"id":20,"odds":2.0}
			]}
		]}`, future, past)
	})
	mux.HandleFunc("POST /app/place-bet-pvp/", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.poolBets = append(p.poolBets, strings.TrimPrefix(r.URL.Path, "/app/place-bet-pvp/"))
		p.mu.Unlock()
		fmt.Fprint(w, `{"data":{"success":true}}`)
	})
	mux.HandleFunc("POST /api/v2/place-bet/spread", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.spreadBets++
		p.mu.Unlock()
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("GET /app/reward", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{
			"missions":[
				{"id":1,"title":"daily","reward":50,"claimEnabled":true,"claimed":false,"metrics":{"cycleID":7}},
				{"id":2,"title":"done","reward":10,"claimEnabled":true,"claimed":true,"metrics":{"cycleID":7}}
			],
			"cycleData":{"ID":7,"released":true}
		}}`)
	})
	mux.HandleFunc("POST /app/reward", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.claims++
		p.mu.Unlock()
		fmt.Fprint(w, `{}`)
	})
	return mux
}

func newTestRunner(t *testing.T, srv *httptest.Server, deps Deps) *Runner {
	t.Helper()
	dir := t.TempDir()
	store := session.NewStore(dir, "pw", discardLogger())
	err := store.Save(session.Credentials{
		Account: "alpha",
		Cookies: []session.Cookie{{Name: "session", Value: "tok"}},
	})
	if err != nil {
		t.Fatalf("saving artifact: %v", err)
	}

	cfg := Config{
		AppHost:     srv.URL,
		RestHost:    srv.URL,
		HTTPTimeout: 5 * time.Second,
		WarmOnStart: true,
		Platforms:   []Platform{{Name: "twitter", Spreads: true}},
		Bet:         service.BetConfig{PoolStake: 15, SkipExisting: true},
		Reward:      service.RewardConfig{Rounds: 1},
	}
	return New(store, strategy.NewAllocator(15, 99), cfg, deps, discardLogger())
}

func TestRunAccountEndToEnd(t *testing.T) {
	platform := &fakePlatform{}
	platform.snapshotIDs.pools = []int64{1}
	platform.snapshotIDs.ranges = []int64{10}
	srv := httptest.NewServer(platform.handler())
	defer srv.Close()

	r := newTestRunner(t, srv, Deps{})
	report, err := r.RunOne(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("RunOne() error = %v", err)
	}

	// Pool 1 and range 10 come back in the snapshot, so only pool 2 and
	// range 11 are wagered. The expired spread contributes nothing.
	if report.PoolBets != 1 {
		t.Errorf("PoolBets = %d, want 1", report.PoolBets)
	}
	if report.SpreadBets != 1 {
		t.Errorf("SpreadBets = %d, want 1", report.SpreadBets)
	}
	if report.BetFailures != 0 {
		t.Errorf("BetFailures = %d, want 0", report.BetFailures)
	}
	if got := platform.poolBets; len(got) != 1 || got[0] != "2" {
		t.Errorf("pool bet paths = %v, want [2]", got)
	}
	if platform.spreadBets != 1 {
		t.Errorf("spread bet submissions = %d, want 1", platform.spreadBets)
	}

	// One cycle claim plus the single unclaimed, enabled mission.
	if report.CycleClaims != 1 || report.MissionClaims != 1 {
		t.Errorf("claims = %d cycle, %d mission, want 1, 1", report.CycleClaims, report.MissionClaims)
	}
	if platform.claims != 2 {
		t.Errorf("claim submissions = %d, want 2", platform.claims)
	}

	if report.RunID == "" || report.Account != "alpha" {
		t.Errorf("report identity = %q/%q", report.RunID, report.Account)
	}
	if report.Error != "" {
		t.Errorf("report.Error = %q, want empty", report.Error)
	}
}

func TestRunAccountRejectedSession(t *testing.T) {
	platform := &fakePlatform{rejectAuth: true}
	srv := httptest.NewServer(platform.handler())
	defer srv.Close()

	r := newTestRunner(t, srv, Deps{})
	report, err := r.RunOne(context.Background(), "alpha")
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("RunOne() error = %v, want ErrAuthenticationFailed", err)
	}
	if report.Error == "" {
		t.Error("failed run must carry its error in the report")
	}
	if len(platform.poolBets) != 0 || platform.spreadBets != 0 {
		t.Error("rejected session must not place wagers")
	}
}

type memorySink struct {
	mu     sync.Mutex
	events []domain.RunEvent
}

func (m *memorySink) Publish(e domain.RunEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *memorySink) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func TestRunPublishesLifecycleEvents(t *testing.T) {
	platform := &fakePlatform{}
	srv := httptest.NewServer(platform.handler())
	defer srv.Close()

	sink := &memorySink{}
	r := newTestRunner(t, srv, Deps{Events: sink})
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	types := sink.types()
	if len(types) == 0 || types[0] != domain.EventRunStarted {
		t.Fatalf("event types = %v, want run_started first", types)
	}
	if types[len(types)-1] != domain.EventRunDone {
		t.Errorf("event types = %v, want run_done last", types)
	}
}

func TestInspectPlacesNoWagers(t *testing.T) {
	platform := &fakePlatform{}
	srv := httptest.NewServer(platform.handler())
	defer srv.Close()

	r := newTestRunner(t, srv, Deps{})
	views, err := r.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	v := views[0]
	if v.Pools != 2 || v.Spreads != 2 || v.Active != 1 {
		t.Errorf("view = %+v, want 2 pools, 2 spreads, 1 active", v)
	}
	if len(platform.poolBets) != 0 || platform.spreadBets != 0 || platform.claims != 0 {
		t.Error("Inspect() must not submit anything")
	}
}

package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/platform/kizzy"
	"github.com/alanyoungcy/kizzybot/internal/session"
)

// MarketView is a read-only snapshot of what one account currently sees.
type MarketView struct {
	Account  string
	Platform string
	Pools    int
	Spreads  int
	Active   int // spreads that are wagerable right now
}

// Inspect fetches markets for every account without placing a single wager,
// for operators checking what a run would act on.
func (r *Runner) Inspect(ctx context.Context) ([]MarketView, error) {
	accounts, err := r.sessions.Accounts()
	if err != nil {
		return nil, err
	}

	var views []MarketView
	for _, account := range accounts {
		creds, err := r.sessions.Load(account)
		if err != nil {
			return views, err
		}
		ch, err := session.NewChannel(creds, r.cfg.AppHost, r.cfg.RestHost, r.cfg.HTTPTimeout, r.logger)
		if err != nil {
			return views, err
		}
		client := kizzy.NewClient(r.cfg.AppHost, r.cfg.RestHost, ch, r.logger)

		now := time.Now()
		for _, platform := range r.cfg.Platforms {
			view := MarketView{Account: account, Platform: platform.Name}
			view.Pools = len(client.Pools(ctx, platform.Name))
			if platform.Spreads {
				spreads := client.Spreads(ctx, platform.Name)
				view.Spreads = len(spreads)
				for _, s := range spreads {
					if !s.Inert(now) {
						view.Active++
					}
				}
			}
			views = append(views, view)
			r.logger.InfoContext(ctx, "market view",
				slog.String("account", account),
				slog.String("platform", platform.Name),
				slog.Int("pools", view.Pools),
				slog.Int("spreads", view.Spreads),
				slog.Int("active_spreads", view.Active),
			)
		}

		if err := ch.Close(); err != nil {
			return views, fmt.Errorf("runner: closing channel for %s: %w", account, err)
		}
	}
	return views, nil
}

package app

import (
	"context"
	"testing"
	"time"

	"zebracli/internal/config"
	"zebracli/internal/domain"
	"zebracli/internal/engine"
	"zebracli/internal/zebra"
	"zebracli/internal/zebra/zebratest"
)

func TestOpenPersistsAcrossContexts(t *testing.T) {
	for _, driver := range []string{config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			srv := zebratest.New(t)
			srv.AddProject(zebra.Project{ID: 10, Name: "Acme", Status: "active", Activities: []zebra.Activity{{ID: 100, Name: "Development"}}})
			srv.AddUser(zebra.User{ID: 7, Firstname: "Ada", Roles: []zebra.Role{{ID: 3, Name: "Developer"}}})

			cfg := config.Default()
			for _, kv := range [][2]string{
				{"storage.driver", driver},
				{"storage.dir", t.TempDir()},
				{"zebra.url", srv.URL},
				{"zebra.token", zebratest.DefaultToken},
				{"zebra.user_id", "7"},
				{"aliases.dev", "acme/development"},
			} {
				if err := cfg.Set(kv[0], kv[1]); err != nil {
					t.Fatalf("set %s: %v", kv[0], err)
				}
			}

			c, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if err := c.Refresh(ctx); err != nil {
				t.Fatalf("refresh: %v", err)
			}
			a, err := c.Projects.FindActivity(ctx, "dev")
			if err != nil {
				t.Fatalf("find activity: %v", err)
			}
			if a.Alias != "dev" {
				t.Fatalf("expected alias dev, got %+v", a)
			}

			start := time.Now().Add(-2 * time.Hour)
			f, err := c.Track.Add(ctx, a, start, start.Add(time.Hour), engine.AddOptions{Description: "ABC-1"})
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			if f.Role == nil {
				t.Fatalf("expected the default role on %+v", f)
			}
			if err := c.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reopened, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			t.Cleanup(func() { _ = reopened.Close() })
			got, err := reopened.Frames.Get(ctx, f.UUID)
			if err != nil {
				t.Fatalf("get frame: %v", err)
			}
			if got.Activity.Key != domain.RemoteKey(100) {
				t.Fatalf("unexpected activity %+v", got.Activity)
			}
			role, err := reopened.Users.DefaultRole(ctx)
			if err != nil || role == nil || role.ID != 3 {
				t.Fatalf("default role %+v, %v", role, err)
			}
		})
	}
}

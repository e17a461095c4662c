package zebra_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"zebracli/internal/zebra"
	"zebracli/internal/zebra/zebratest"
)

func seeded(t *testing.T) *zebratest.Server {
	t.Helper()
	srv := zebratest.New(t)
	srv.Now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	srv.AddProject(zebra.Project{
		ID: 10, Name: "Acme", Status: "active",
		Activities: []zebra.Activity{{ID: 100, Name: "Development"}},
	})
	srv.AddUser(zebra.User{ID: 7, Firstname: "Ada", Lastname: "Lovelace", Roles: []zebra.Role{{ID: 3, Name: "Dev"}}})
	return srv
}

func TestClientTimesheetLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := seeded(t)
	c := srv.ZebraClient()

	role := 3
	created, err := c.CreateTimesheet(ctx, zebra.Timesheet{
		ProjectID: 10, ActivityID: 100, RoleID: &role,
		Description: "ABC-1 review", Time: 1.5, Date: "2024-03-04",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.UpdatedAt != "2024-03-04T12:00:00Z" {
		t.Fatalf("unexpected created timesheet %+v", created)
	}

	got, err := c.Timesheet(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(created, got) {
		t.Fatalf("got %+v, want %+v", got, created)
	}

	got.Time = 2
	updated, err := c.UpdateTimesheet(ctx, created.ID, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Time != 2 {
		t.Fatalf("update not applied: %+v", updated)
	}

	list, err := c.Timesheets(ctx, zebra.TimesheetFilter{StartDate: "2024-03-01", EndDate: "2024-03-04"})
	if err != nil || len(list) != 1 {
		t.Fatalf("list in range: %v %v", list, err)
	}
	list, err = c.Timesheets(ctx, zebra.TimesheetFilter{StartDate: "2024-03-05"})
	if err != nil || len(list) != 0 {
		t.Fatalf("list after range: %v %v", list, err)
	}

	if err := c.DeleteTimesheet(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Timesheet(ctx, created.ID); !zebra.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestClientRejectsUnknownActivity(t *testing.T) {
	srv := seeded(t)
	_, err := srv.ZebraClient().CreateTimesheet(context.Background(), zebra.Timesheet{
		ProjectID: 10, ActivityID: 999, IndividualAction: true, Time: 1, Date: "2024-03-04",
	})
	var apiErr *zebra.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || zebra.IsNotFound(err) {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestClientProjectsAndUsers(t *testing.T) {
	ctx := context.Background()
	c := seeded(t).ZebraClient()

	projects, err := c.Projects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Activities[0].Name != "Development" {
		t.Fatalf("unexpected projects %+v", projects)
	}

	users, err := c.Users(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("users %+v %v", users, err)
	}

	u, err := c.User(ctx, 7)
	if err != nil || u.Lastname != "Lovelace" {
		t.Fatalf("user %+v %v", u, err)
	}

	if _, err := c.User(ctx, 8); !zebra.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientAuthentication(t *testing.T) {
	ctx := context.Background()
	srv := seeded(t)

	_, err := zebra.New(srv.URL, "wrong").Projects(ctx)
	var apiErr *zebra.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	token, err := zebratest.SignToken(srv.JWTSecret, 7, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	created, err := zebra.New(srv.URL, token).CreateTimesheet(ctx, zebra.Timesheet{
		ProjectID: 10, ActivityID: 100, IndividualAction: true, Time: 0.25, Date: "2024-03-04",
	})
	if err != nil {
		t.Fatalf("create with jwt: %v", err)
	}
	if created.UserID != 7 {
		t.Fatalf("timesheet booked for user %d", created.UserID)
	}
}

func TestClientWithoutURL(t *testing.T) {
	if _, err := zebra.New("", "token").Projects(context.Background()); !errors.Is(err, zebra.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/testfixtures"
)

func seedSchool(t *testing.T) (*testfixtures.SQLiteHarness, testfixtures.UserFixture, testfixtures.ResourceFixture) {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	user := testfixtures.NewUserFixture(testfixtures.WithUserID("user-1"), testfixtures.WithUserName("Ana"))
	resource := testfixtures.NewResourceFixture(testfixtures.WithResourceID("resource-1"), testfixtures.WithResourceName("Laboratório"))
	harness.SeedUser(t, user)
	harness.SeedResource(t, resource)
	return harness, user, resource
}

func TestReservationRepositoryWindowQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness, user, resource := seedSchool(t)
	base := testfixtures.ReferenceTime()

	for _, fixture := range []testfixtures.ReservationFixture{
		testfixtures.NewReservationFixture(
			testfixtures.WithReservationID("morning"),
			testfixtures.WithReservationResource(resource.ID),
			testfixtures.WithReservationUser(user.ID),
			testfixtures.WithReservationInterval(base.Add(-3*time.Hour), base.Add(-2*time.Hour)),
		),
		testfixtures.NewReservationFixture(
			testfixtures.WithReservationID("noon"),
			testfixtures.WithReservationResource(resource.ID),
			testfixtures.WithReservationUser(user.ID),
			testfixtures.WithReservationInterval(base, base.Add(time.Hour)),
		),
		testfixtures.NewReservationFixture(
			testfixtures.WithReservationID("noon-cancelled"),
			testfixtures.WithReservationResource(resource.ID),
			testfixtures.WithReservationUser(user.ID),
			testfixtures.WithReservationInterval(base, base.Add(time.Hour)),
			testfixtures.WithReservationStatus(application.StatusCancelled),
		),
		testfixtures.NewReservationFixture(
			testfixtures.WithReservationID("tomorrow"),
			testfixtures.WithReservationResource(resource.ID),
			testfixtures.WithReservationUser(user.ID),
			testfixtures.WithReservationInterval(base.Add(24*time.Hour), base.Add(25*time.Hour)),
		),
	} {
		harness.SeedReservation(t, fixture)
	}

	dayStart := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	today, err := harness.Reservations.ListReservations(ctx, persistence.ReservationFilter{
		ResourceID:   resource.ID,
		EndsAfter:    &dayStart,
		StartsBefore: &dayEnd,
	})
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(today) != 3 || today[0].ID != "morning" {
		t.Fatalf("expected three reservations today starting with morning, got %#v", today)
	}
	if today[0].ResourceName != "Laboratório" || today[0].UserName != "Ana" {
		t.Fatalf("expected joined names, got %q %q", today[0].ResourceName, today[0].UserName)
	}

	confirmed, err := harness.Reservations.CountReservations(ctx, persistence.ReservationFilter{
		Statuses:     []string{string(application.StatusConfirmed)},
		EndsAfter:    &dayStart,
		StartsBefore: &dayEnd,
	})
	if err != nil {
		t.Fatalf("CountReservations: %v", err)
	}
	if confirmed != 2 {
		t.Fatalf("expected two confirmed reservations today, got %d", confirmed)
	}

	overlapping, err := harness.Reservations.FindOverlapping(ctx, resource.ID, base.Add(30*time.Minute), base.Add(90*time.Minute), "")
	if err != nil {
		t.Fatalf("FindOverlapping: %v", err)
	}
	if len(overlapping) != 1 || overlapping[0].ID != "noon" {
		t.Fatalf("expected only the confirmed noon reservation, got %#v", overlapping)
	}

	limited, err := harness.Reservations.ListReservations(ctx, persistence.ReservationFilter{UserID: user.ID, Limit: 2})
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestDeletingUserWithReservationsIsRestricted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness, user, resource := seedSchool(t)

	harness.SeedReservation(t, testfixtures.NewReservationFixture(
		testfixtures.WithReservationID("reservation-1"),
		testfixtures.WithReservationResource(resource.ID),
		testfixtures.WithReservationUser(user.ID),
		testfixtures.WithReservationStatus(application.StatusCancelled),
	))

	err := harness.Users.DeleteUser(ctx, user.ID)
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
	if _, err := harness.Reservations.GetReservation(ctx, "reservation-1"); err != nil {
		t.Fatalf("expected reservation kept, got %v", err)
	}
	if _, err := harness.Users.GetUser(ctx, user.ID); err != nil {
		t.Fatalf("expected user kept, got %v", err)
	}
}

func TestDeletingUserRemovesTheirSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness, user, resource := seedSchool(t)

	session := testfixtures.NewSessionFixture(testfixtures.WithSessionUserID(user.ID), testfixtures.WithSessionToken("token-1"))
	if _, err := harness.Sessions.CreateSession(ctx, session.Persistence()); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := harness.Users.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := harness.Sessions.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
	if _, err := harness.Resources.GetResource(ctx, resource.ID); err != nil {
		t.Fatalf("expected resource kept, got %v", err)
	}
}

func TestDeletingResourceCascadesReservations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness, user, resource := seedSchool(t)

	harness.SeedReservation(t, testfixtures.NewReservationFixture(
		testfixtures.WithReservationID("reservation-1"),
		testfixtures.WithReservationResource(resource.ID),
		testfixtures.WithReservationUser(user.ID),
	))

	if err := harness.Resources.DeleteResource(ctx, resource.ID); err != nil {
		t.Fatalf("DeleteResource: %v", err)
	}
	if _, err := harness.Reservations.GetReservation(ctx, "reservation-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected reservation removed with its resource, got %v", err)
	}
	if err := harness.Users.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser after cascade: %v", err)
	}
}

func TestReservationRequiresExistingUserAndResource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness, user, _ := seedSchool(t)

	orphan := testfixtures.NewReservationFixture(
		testfixtures.WithReservationResource("missing-resource"),
		testfixtures.WithReservationUser(user.ID),
	)
	err := harness.Reservations.CreateReservation(ctx, orphan.Persistence())
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestSettingsSeededByMigrations(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	settings, err := harness.Settings.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}

	want := testfixtures.DefaultSettings()
	if settings.StartTime != want.StartTime || settings.EndTime != want.EndTime {
		t.Fatalf("unexpected day bounds %s-%s", settings.StartTime, settings.EndTime)
	}
	if settings.ClassBlockMinutes != want.ClassBlockMinutes {
		t.Fatalf("unexpected block length %d", settings.ClassBlockMinutes)
	}
	if len(settings.ClassBlocks) != len(want.ClassBlocks) || len(settings.Breaks) != len(want.Breaks) {
		t.Fatalf("unexpected seeded blocks %#v", settings)
	}
}

package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
)

func validSettingsInput() SettingsInput {
	return SettingsInput{
		StartTime:         "07:30",
		EndTime:           "12:00",
		ClassBlockMinutes: 50,
		OperatingDays:     []int{5, 1, 3, 1},
		ClassBlocks: []schedule.Block{
			{StartTime: "08:20", EndTime: "09:10"},
			{StartTime: "07:30", EndTime: "08:20"},
		},
		Breaks:       []schedule.Block{{StartTime: "09:10", EndTime: "09:30"}},
		ResourceTags: []string{" Multimídia ", "multimídia", "Palco"},
	}
}

func TestSettingsServiceUpdateSettings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := Principal{UserID: "admin", Role: RoleAdmin}

	t.Run("normalizes and saves", func(t *testing.T) {
		t.Parallel()
		repo := &settingsRepoStub{}
		service := NewSettingsService(repo, fixedNow)

		got, err := service.UpdateSettings(ctx, UpdateSettingsParams{Principal: admin, Input: validSettingsInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got.OperatingDays, []int{1, 3, 5}) {
			t.Fatalf("unexpected operating days %v", got.OperatingDays)
		}
		if got.ClassBlocks[0].StartTime != "07:30" {
			t.Fatalf("expected blocks sorted by start, got %#v", got.ClassBlocks)
		}
		if !reflect.DeepEqual(got.ResourceTags, []string{"Multimídia", "Palco"}) {
			t.Fatalf("unexpected tags %v", got.ResourceTags)
		}
		if !got.UpdatedAt.Equal(fixedNow()) {
			t.Fatalf("unexpected updated at %s", got.UpdatedAt)
		}
		if repo.saves != 1 {
			t.Fatalf("expected one save, got %d", repo.saves)
		}
	})

	t.Run("requires administrator", func(t *testing.T) {
		t.Parallel()
		repo := &settingsRepoStub{}
		service := NewSettingsService(repo, fixedNow)
		_, err := service.UpdateSettings(ctx, UpdateSettingsParams{
			Principal: Principal{UserID: "u1", Role: RoleUser},
			Input:     validSettingsInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if repo.saves != 0 {
			t.Fatalf("expected no save")
		}
	})

	cases := []struct {
		name   string
		mutate func(*SettingsInput)
		field  string
	}{
		{"bad start time", func(in *SettingsInput) { in.StartTime = "7h30" }, "startTime"},
		{"end before start", func(in *SettingsInput) { in.EndTime = "07:00" }, "endTime"},
		{"zero block minutes", func(in *SettingsInput) { in.ClassBlockMinutes = 0 }, "classBlockMinutes"},
		{"block longer than day", func(in *SettingsInput) { in.ClassBlockMinutes = 600 }, "classBlockMinutes"},
		{"weekday out of range", func(in *SettingsInput) { in.OperatingDays = []int{7} }, "operatingDays"},
		{"inverted block", func(in *SettingsInput) {
			in.ClassBlocks = []schedule.Block{{StartTime: "09:00", EndTime: "08:00"}}
		}, "classBlocks[0]"},
		{"break outside the day", func(in *SettingsInput) {
			in.Breaks = []schedule.Block{{StartTime: "12:30", EndTime: "13:00"}}
		}, "breaks[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &settingsRepoStub{}
			service := NewSettingsService(repo, fixedNow)
			input := validSettingsInput()
			tc.mutate(&input)

			_, err := service.UpdateSettings(ctx, UpdateSettingsParams{Principal: admin, Input: input})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s error, got %#v", tc.field, vErr.FieldErrors)
			}
			if repo.saves != 0 {
				t.Fatalf("expected no save")
			}
		})
	}
}

func TestSettingsServiceRegenerateClassBlocks(t *testing.T) {
	t.Parallel()

	repo := &settingsRepoStub{settings: Settings{
		StartTime:         "07:30",
		EndTime:           "11:50",
		ClassBlockMinutes: 50,
		Breaks:            []schedule.Block{{StartTime: "09:10", EndTime: "09:30"}},
	}}
	service := NewSettingsService(repo, fixedNow)
	admin := Principal{UserID: "admin", Role: RoleAdmin}

	first, err := service.RegenerateClassBlocks(context.Background(), admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []schedule.Block{
		{StartTime: "07:30", EndTime: "08:20"},
		{StartTime: "08:20", EndTime: "09:10"},
		{StartTime: "09:30", EndTime: "10:20"},
		{StartTime: "10:20", EndTime: "11:10"},
	}
	if !reflect.DeepEqual(first.ClassBlocks, want) {
		t.Fatalf("unexpected blocks %#v", first.ClassBlocks)
	}

	second, err := service.RegenerateClassBlocks(context.Background(), admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.ClassBlocks, second.ClassBlocks) {
		t.Fatalf("expected regeneration to be stable")
	}

	if _, err := service.RegenerateClassBlocks(context.Background(), Principal{UserID: "u1", Role: RoleUser}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSettingsServiceTimeSlotsAndOperatingDays(t *testing.T) {
	t.Parallel()

	repo := &settingsRepoStub{settings: Settings{
		OperatingDays: []int{1, 2, 3, 4, 5},
		ClassBlocks: []schedule.Block{
			{StartTime: "07:30", EndTime: "08:20"},
			{StartTime: "08:20", EndTime: "09:10"},
		},
		Breaks: []schedule.Block{{StartTime: "09:10", EndTime: "09:30"}},
	}}
	service := NewSettingsService(repo, fixedNow)
	ctx := context.Background()

	slots, err := service.TimeSlots(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(slots.Starts, []string{"07:30", "08:20", "09:10"}) {
		t.Fatalf("unexpected starts %v", slots.Starts)
	}
	if !reflect.DeepEqual(slots.Ends, []string{"08:20", "09:10", "09:30"}) {
		t.Fatalf("unexpected ends %v", slots.Ends)
	}

	monday := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	if ok, err := service.IsOperatingDay(ctx, monday); err != nil || !ok {
		t.Fatalf("expected Monday to be open, got %v %v", ok, err)
	}
	if ok, err := service.IsOperatingDay(ctx, monday.AddDate(0, 0, 6)); err != nil || ok {
		t.Fatalf("expected Sunday to be closed, got %v %v", ok, err)
	}

	repo.settings.OperatingDays = nil
	if ok, _ := service.IsOperatingDay(ctx, monday.AddDate(0, 0, 6)); !ok {
		t.Fatalf("expected empty operating days to allow every day")
	}
}

func TestSettingsServiceSeesChangesFromOtherWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := Principal{UserID: "admin", Role: RoleAdmin}
	repo := weekdaySettings()
	server := NewSettingsService(repo, fixedNow)
	cli := NewSettingsService(repo, fixedNow)
	reservations := NewReservationService(newReservationRepoStub(), newResourceRepoStub(Resource{ID: "r1"}), server, nil, func() string { return "res-1" }, fixedNow, schoolZone)

	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, schoolZone)
	if ok, err := server.IsOperatingDay(ctx, monday); err != nil || !ok {
		t.Fatalf("expected Monday to be open, got %v %v", ok, err)
	}

	input := SettingsInput{StartTime: "07:30", EndTime: "17:00", ClassBlockMinutes: 50, OperatingDays: []int{2, 3, 4, 5}}
	if _, err := cli.UpdateSettings(ctx, UpdateSettingsParams{Principal: admin, Input: input}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok, err := server.IsOperatingDay(ctx, monday); err != nil || ok {
		t.Fatalf("expected Monday to be closed after the update, got %v %v", ok, err)
	}
	_, err := reservations.CreateReservation(ctx, CreateReservationParams{
		Principal: Principal{UserID: "u1", Role: RoleUser},
		Input:     ReservationInput{ResourceID: "r1", Date: "2024-03-11", StartTime: "10:00", EndTime: "11:00"},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["date"] == "" {
		t.Fatalf("expected date validation error, got %v", err)
	}
}

func TestSettingsServiceGetSettingsNotFound(t *testing.T) {
	t.Parallel()

	service := NewSettingsService(&settingsRepoStub{getErr: persistence.ErrNotFound}, fixedNow)
	if _, err := service.GetSettings(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

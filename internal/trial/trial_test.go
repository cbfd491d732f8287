package trial

import (
	"context"
	"errors"
	"testing"

	"kartbot/internal/store"
	"kartbot/internal/tracks"
)

const guildID = "guild-1"

func TestCreateTrial(t *testing.T) {
	m := NewManager(newFakeStore(), 2)

	trial, err := m.Create(context.Background(), guildID, "Rainbow Road",
		tracks.CategoryShrooms, nil, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if trial.TrialNumber != 1 {
		t.Errorf("first trial number = %d, want 1", trial.TrialNumber)
	}
	if trial.Status != store.TrialActive {
		t.Errorf("trial status = %q, want active", trial.Status)
	}
}

func TestCreateRejectsBadDuration(t *testing.T) {
	m := NewManager(newFakeStore(), 2)

	for _, days := range []int{0, -1, 31, 100} {
		_, err := m.Create(context.Background(), guildID, "Rainbow Road",
			tracks.CategoryShrooms, nil, days)
		if !errors.Is(err, ErrDuration) {
			t.Errorf("duration %d: got %v, want ErrDuration", days, err)
		}
	}
}

func TestCreateRejectsDuplicateTrackCategory(t *testing.T) {
	m := NewManager(newFakeStore(), 5)
	ctx := context.Background()

	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7); !errors.Is(err, ErrTrialExists) {
		t.Errorf("duplicate: got %v, want ErrTrialExists", err)
	}
	// Same track, other category is fine
	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShroomless, nil, 7); err != nil {
		t.Errorf("other category rejected: %v", err)
	}
}

func TestCreateEnforcesActiveCap(t *testing.T) {
	fs := newFakeStore()
	m := NewManager(fs, 2)
	ctx := context.Background()

	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(ctx, guildID, "Mario Circuit", tracks.CategoryShrooms, nil, 7); err != nil {
		t.Fatal(err)
	}

	_, err := m.Create(ctx, guildID, "Peach Beach", tracks.CategoryShrooms, nil, 7)
	if !errors.Is(err, ErrTrialCap) {
		t.Fatalf("third trial: got %v, want ErrTrialCap", err)
	}
	// The rejected create must not have mutated the store
	if count, _ := fs.CountActiveTrials(ctx, guildID); count != 2 {
		t.Errorf("active trials after rejected create = %d, want 2", count)
	}
}

func TestMedalBoundaries(t *testing.T) {
	trial := &store.Trial{Thresholds: &store.Thresholds{
		GoldMillis:   140000,
		SilverMillis: 145000,
		BronzeMillis: 150000,
	}}

	cases := map[int]Medal{
		139000: MedalGold,
		140000: MedalGold,
		140001: MedalSilver,
		145000: MedalSilver,
		150000: MedalBronze,
		150001: MedalNone,
	}
	for timeMillis, want := range cases {
		if got := MedalFor(timeMillis, trial); got != want {
			t.Errorf("MedalFor(%d) = %q, want %q", timeMillis, got, want)
		}
	}
}

func TestMedalWithoutThresholds(t *testing.T) {
	trial := &store.Trial{}
	if got := MedalFor(0, trial); got != MedalNone {
		t.Errorf("MedalFor without thresholds = %q, want none", got)
	}
}

func TestSubmitTimeImprovementGate(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	ctx := context.Background()

	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7); err != nil {
		t.Fatal(err)
	}

	first, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 143640)
	if err != nil {
		t.Fatalf("first submission returned error: %v", err)
	}
	if first.Improvement {
		t.Error("first submission flagged as improvement")
	}

	// Equal time is rejected
	_, err = m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 143640)
	var notImproved *NotImprovementError
	if !errors.As(err, &notImproved) {
		t.Fatalf("equal resubmission: got %v, want NotImprovementError", err)
	}
	if notImproved.PreviousMillis != 143640 {
		t.Errorf("previous = %d, want 143640", notImproved.PreviousMillis)
	}

	// Slower time is rejected
	if _, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 150000); !errors.As(err, &notImproved) {
		t.Errorf("slower resubmission: got %v, want NotImprovementError", err)
	}

	// Faster time is accepted and marked as improvement
	result, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 143000)
	if err != nil {
		t.Fatalf("faster resubmission returned error: %v", err)
	}
	if !result.Improvement {
		t.Error("faster resubmission not flagged as improvement")
	}
	if result.PreviousMillis == nil || *result.PreviousMillis != 143640 {
		t.Errorf("previous millis = %v, want 143640", result.PreviousMillis)
	}
}

func TestSubmitTimeNoActiveTrial(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	_, err := m.SubmitTime(context.Background(), guildID, "Rainbow Road", "user-1", 143640)
	if !errors.Is(err, ErrNoActiveTrial) {
		t.Errorf("got %v, want ErrNoActiveTrial", err)
	}
}

func TestSubmitTimeMedal(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	ctx := context.Background()
	th := &store.Thresholds{GoldMillis: 140000, SilverMillis: 145000, BronzeMillis: 150000}

	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, th, 7); err != nil {
		t.Fatal(err)
	}
	result, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 139500)
	if err != nil {
		t.Fatal(err)
	}
	if result.Medal != MedalGold {
		t.Errorf("medal = %q, want gold", result.Medal)
	}
}

func TestRemoveTime(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	ctx := context.Background()

	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7); err != nil {
		t.Fatal(err)
	}

	// Nothing submitted yet
	if _, err := m.RemoveTime(ctx, guildID, "Rainbow Road", "user-1"); !errors.Is(err, ErrNoSubmission) {
		t.Errorf("remove before submit: got %v, want ErrNoSubmission", err)
	}

	if _, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 143640); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RemoveTime(ctx, guildID, "Rainbow Road", "user-1"); err != nil {
		t.Fatalf("RemoveTime returned error: %v", err)
	}
	// A fresh submission at the old value is accepted again
	if _, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 143640); err != nil {
		t.Errorf("resubmission after removal rejected: %v", err)
	}
}

func TestEndTrial(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	ctx := context.Background()

	if _, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7); err != nil {
		t.Fatal(err)
	}
	trial, err := m.End(ctx, guildID, "Rainbow Road")
	if err != nil {
		t.Fatalf("End returned error: %v", err)
	}
	if trial.Status != store.TrialEnded {
		t.Errorf("status = %q, want ended", trial.Status)
	}
	// Ending again fails: the trial is no longer active
	if _, err := m.End(ctx, guildID, "Rainbow Road"); !errors.Is(err, ErrNoActiveTrial) {
		t.Errorf("second End: got %v, want ErrNoActiveTrial", err)
	}
	// Submissions are rejected once ended
	if _, err := m.SubmitTime(ctx, guildID, "Rainbow Road", "user-1", 143640); !errors.Is(err, ErrNoActiveTrial) {
		t.Errorf("submit after end: got %v, want ErrNoActiveTrial", err)
	}
}

func TestSetAndClearThresholds(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	ctx := context.Background()

	created, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7)
	if err != nil {
		t.Fatal(err)
	}

	th := &store.Thresholds{GoldMillis: 140000, SilverMillis: 145000, BronzeMillis: 150000}
	updated, err := m.SetThresholds(ctx, guildID, created.TrialNumber, th)
	if err != nil {
		t.Fatalf("SetThresholds returned error: %v", err)
	}
	if updated.Thresholds == nil || updated.Thresholds.GoldMillis != 140000 {
		t.Errorf("thresholds not applied: %+v", updated.Thresholds)
	}

	cleared, err := m.SetThresholds(ctx, guildID, created.TrialNumber, nil)
	if err != nil {
		t.Fatalf("clearing thresholds returned error: %v", err)
	}
	if cleared.Thresholds != nil {
		t.Errorf("thresholds not cleared: %+v", cleared.Thresholds)
	}

	if _, err := m.SetThresholds(ctx, guildID, 99, th); !errors.Is(err, ErrTrialNotFound) {
		t.Errorf("unknown trial: got %v, want ErrTrialNotFound", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	m := NewManager(newFakeStore(), 5)
	ctx := context.Background()

	created, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7)
	if err != nil {
		t.Fatal(err)
	}

	// No-op change is rejected
	if _, err := m.UpdateCategory(ctx, guildID, created.TrialNumber, tracks.CategoryShrooms); !errors.Is(err, ErrSameCategory) {
		t.Errorf("same category: got %v, want ErrSameCategory", err)
	}

	updated, err := m.UpdateCategory(ctx, guildID, created.TrialNumber, tracks.CategoryShroomless)
	if err != nil {
		t.Fatalf("UpdateCategory returned error: %v", err)
	}
	if updated.Category != tracks.CategoryShroomless {
		t.Errorf("category = %q, want shroomless", updated.Category)
	}

	// Collision with an active trial in the target category
	other, err := m.Create(ctx, guildID, "Mario Circuit", tracks.CategoryShrooms, nil, 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(ctx, guildID, "Mario Circuit", tracks.CategoryShroomless, nil, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpdateCategory(ctx, guildID, other.TrialNumber, tracks.CategoryShroomless); !errors.Is(err, ErrTrialExists) {
		t.Errorf("category collision: got %v, want ErrTrialExists", err)
	}
}

func TestByTrackIncludesFinishedTrials(t *testing.T) {
	m := NewManager(newFakeStore(), 2)
	ctx := context.Background()

	created, err := m.Create(ctx, guildID, "Rainbow Road", tracks.CategoryShrooms, nil, 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.End(ctx, guildID, "Rainbow Road"); err != nil {
		t.Fatalf("End returned error: %v", err)
	}

	// The final standings of an ended trial stay viewable
	found, err := m.ByTrack(ctx, guildID, "Rainbow Road")
	if err != nil {
		t.Fatalf("ByTrack after end returned error: %v", err)
	}
	if found.TrialNumber != created.TrialNumber {
		t.Errorf("trial number = %d, want %d", found.TrialNumber, created.TrialNumber)
	}
	if found.Status != store.TrialEnded {
		t.Errorf("status = %q, want ended", found.Status)
	}

	if _, err := m.ByTrack(ctx, guildID, "Mario Circuit"); !errors.Is(err, ErrTrialNotFound) {
		t.Errorf("unknown track: got %v, want ErrTrialNotFound", err)
	}
}

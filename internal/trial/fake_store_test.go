package trial

import (
	"context"
	"time"

	"kartbot/internal/store"
	"kartbot/internal/tracks"
)

// fakeStore is an in-memory stand-in for the Postgres store
type fakeStore struct {
	trials map[int64]*store.Trial
	times  map[int64]map[string]*store.PlayerTime
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trials: map[int64]*store.Trial{},
		times:  map[int64]map[string]*store.PlayerTime{},
	}
}

func (f *fakeStore) CreateTrial(ctx context.Context, t *store.Trial) error {
	f.nextID++
	number := 0
	for _, existing := range f.trials {
		if existing.GuildID == t.GuildID && existing.TrialNumber > number {
			number = existing.TrialNumber
		}
	}
	t.ID = f.nextID
	t.TrialNumber = number + 1
	t.Status = store.TrialActive
	t.StartDate = time.Now()
	clone := *t
	f.trials[t.ID] = &clone
	f.times[t.ID] = map[string]*store.PlayerTime{}
	return nil
}

func (f *fakeStore) TrialByNumber(ctx context.Context, guildID string, number int) (*store.Trial, error) {
	for _, t := range f.trials {
		if t.GuildID == guildID && t.TrialNumber == number {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TrialByTrack(ctx context.Context, guildID string, track string) (*store.Trial, error) {
	var latest *store.Trial
	for _, t := range f.trials {
		if t.GuildID != guildID || t.TrackName != track {
			continue
		}
		if latest == nil || t.StartDate.After(latest.StartDate) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (f *fakeStore) ActiveTrialByTrack(ctx context.Context, guildID string, track string) (*store.Trial, error) {
	for _, t := range f.trials {
		if t.GuildID == guildID && t.TrackName == track && t.Status == store.TrialActive {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ActiveTrialByTrackCategory(ctx context.Context, guildID string, track string, category tracks.Category) (*store.Trial, error) {
	for _, t := range f.trials {
		if t.GuildID == guildID && t.TrackName == track &&
			t.Category == category && t.Status == store.TrialActive {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ActiveTrials(ctx context.Context, guildID string) ([]store.Trial, error) {
	var result []store.Trial
	for _, t := range f.trials {
		if t.GuildID == guildID && t.Status == store.TrialActive {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *fakeStore) CountActiveTrials(ctx context.Context, guildID string) (int, error) {
	count := 0
	for _, t := range f.trials {
		if t.GuildID == guildID && t.Status == store.TrialActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) EndTrial(ctx context.Context, id int64) (bool, error) {
	t, ok := f.trials[id]
	if !ok || t.Status != store.TrialActive {
		return false, nil
	}
	t.Status = store.TrialEnded
	t.EndDate = time.Now()
	return true, nil
}

func (f *fakeStore) SetTrialThresholds(ctx context.Context, id int64, th *store.Thresholds) error {
	if t, ok := f.trials[id]; ok {
		t.Thresholds = th
	}
	return nil
}

func (f *fakeStore) SetTrialCategory(ctx context.Context, id int64, category tracks.Category) error {
	if t, ok := f.trials[id]; ok {
		t.Category = category
	}
	return nil
}

func (f *fakeStore) PlayerTimeFor(ctx context.Context, trialID int64, userID string) (*store.PlayerTime, error) {
	if pt, ok := f.times[trialID][userID]; ok {
		clone := *pt
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertPlayerTime(ctx context.Context, trialID int64, userID string, timeMillis int) error {
	if existing, ok := f.times[trialID][userID]; ok {
		existing.TimeMillis = timeMillis
		existing.UpdatedAt = time.Now()
		return nil
	}
	f.nextID++
	f.times[trialID][userID] = &store.PlayerTime{
		ID:          f.nextID,
		TrialID:     trialID,
		UserID:      userID,
		TimeMillis:  timeMillis,
		SubmittedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	return nil
}

func (f *fakeStore) DeletePlayerTime(ctx context.Context, trialID int64, userID string) (bool, error) {
	if _, ok := f.times[trialID][userID]; !ok {
		return false, nil
	}
	delete(f.times[trialID], userID)
	return true, nil
}

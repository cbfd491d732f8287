package duel

import (
	"context"
	"time"

	"kartbot/internal/store"
)

// fakeStore is an in-memory stand-in for the Postgres store
type fakeStore struct {
	duels  map[int64]*store.Duel
	times  map[int64]map[string]*store.DuelTime
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		duels: map[int64]*store.Duel{},
		times: map[int64]map[string]*store.DuelTime{},
	}
}

func (f *fakeStore) CreateDuel(ctx context.Context, d *store.Duel) error {
	f.nextID++
	number := 0
	for _, existing := range f.duels {
		if existing.GuildID == d.GuildID && existing.ChallengeNumber > number {
			number = existing.ChallengeNumber
		}
	}
	d.ID = f.nextID
	d.ChallengeNumber = number + 1
	d.Status = store.DuelPending
	d.CreatedAt = time.Now()
	clone := *d
	f.duels[d.ID] = &clone
	f.times[d.ID] = map[string]*store.DuelTime{}
	return nil
}

func (f *fakeStore) DuelByNumber(ctx context.Context, guildID string, number int) (*store.Duel, error) {
	for _, d := range f.duels {
		if d.GuildID == guildID && d.ChallengeNumber == number {
			clone := *d
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) listDuels(guildID string, match func(*store.Duel) bool) []store.Duel {
	var result []store.Duel
	for _, d := range f.duels {
		if d.GuildID == guildID && match(d) {
			result = append(result, *d)
		}
	}
	return result
}

func (f *fakeStore) PendingDuelsForOpponent(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return f.listDuels(guildID, func(d *store.Duel) bool {
		return d.OpponentID == userID && d.Status == store.DuelPending
	}), nil
}

func (f *fakeStore) PendingDuelsForCreator(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return f.listDuels(guildID, func(d *store.Duel) bool {
		return d.CreatorID == userID && d.Status == store.DuelPending
	}), nil
}

func (f *fakeStore) ActiveDuelsForParticipant(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return f.listDuels(guildID, func(d *store.Duel) bool {
		return d.Participant(userID) && d.Status == store.DuelActive
	}), nil
}

func (f *fakeStore) DuelsForParticipant(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return f.listDuels(guildID, func(d *store.Duel) bool {
		return d.Participant(userID)
	}), nil
}

func (f *fakeStore) AcceptDuel(ctx context.Context, id int64, now time.Time) (bool, error) {
	d, ok := f.duels[id]
	if !ok || d.Status != store.DuelPending {
		return false, nil
	}
	d.Status = store.DuelActive
	d.AcceptedAt = &now
	d.StartDate = &now
	return true, nil
}

func (f *fakeStore) DeclineDuel(ctx context.Context, id int64) (bool, error) {
	d, ok := f.duels[id]
	if !ok || d.Status != store.DuelPending {
		return false, nil
	}
	d.Status = store.DuelDeclined
	return true, nil
}

func (f *fakeStore) CancelDuel(ctx context.Context, id int64) (bool, error) {
	d, ok := f.duels[id]
	if !ok || d.Status != store.DuelPending {
		return false, nil
	}
	d.Status = store.DuelExpired
	return true, nil
}

func (f *fakeStore) CompleteDuel(ctx context.Context, id int64, winnerID *string) (bool, error) {
	d, ok := f.duels[id]
	if !ok || d.Status != store.DuelActive {
		return false, nil
	}
	d.Status = store.DuelCompleted
	d.WinnerID = winnerID
	return true, nil
}

func (f *fakeStore) UpsertDuelTime(ctx context.Context, challengeID int64, userID string, timeMillis int) error {
	if existing, ok := f.times[challengeID][userID]; ok {
		existing.TimeMillis = timeMillis
		existing.UpdatedAt = time.Now()
		return nil
	}
	f.nextID++
	f.times[challengeID][userID] = &store.DuelTime{
		ID:          f.nextID,
		ChallengeID: challengeID,
		UserID:      userID,
		TimeMillis:  timeMillis,
		SubmittedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	return nil
}

func (f *fakeStore) DuelTimeFor(ctx context.Context, challengeID int64, userID string) (*store.DuelTime, error) {
	if dt, ok := f.times[challengeID][userID]; ok {
		clone := *dt
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeStore) DuelTimes(ctx context.Context, challengeID int64) ([]store.DuelTime, error) {
	var times []store.DuelTime
	for _, dt := range f.times[challengeID] {
		times = append(times, *dt)
	}
	// fastest first, then user id for a stable order on ties
	for i := 0; i < len(times); i++ {
		for j := i + 1; j < len(times); j++ {
			if times[j].TimeMillis < times[i].TimeMillis ||
				(times[j].TimeMillis == times[i].TimeMillis && times[j].UserID < times[i].UserID) {
				times[i], times[j] = times[j], times[i]
			}
		}
	}
	return times, nil
}

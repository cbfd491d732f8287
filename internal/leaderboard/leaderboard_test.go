package leaderboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"kartbot/internal/leaderboard"
	"kartbot/internal/store"
	"kartbot/internal/trial"
)

type fakeStore struct {
	trial *store.Trial
	times []store.PlayerTime
}

func (f *fakeStore) TrialByID(ctx context.Context, id int64) (*store.Trial, error) {
	if f.trial == nil || f.trial.ID != id {
		return nil, nil
	}
	clone := *f.trial
	return &clone, nil
}

func (f *fakeStore) PlayerTimes(ctx context.Context, trialID int64) ([]store.PlayerTime, error) {
	return append([]store.PlayerTime(nil), f.times...), nil
}

func (f *fakeStore) SetLeaderboardMessage(ctx context.Context, id int64, channelID, messageID string) error {
	f.trial.LeaderboardChannelID = &channelID
	f.trial.LeaderboardMessageID = &messageID
	return nil
}

// fakeMessenger records sends and can simulate a deleted message
type fakeMessenger struct {
	nextID   int
	sent     []string
	edited   []string
	lostEdit bool
}

func (f *fakeMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	f.nextID++
	id := "msg-" + string(rune('0'+f.nextID))
	f.sent = append(f.sent, id)
	return id, nil
}

func (f *fakeMessenger) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	if f.lostEdit {
		return leaderboard.ErrMessageNotFound
	}
	f.edited = append(f.edited, messageID)
	return nil
}

func (f *fakeMessenger) DisplayNames(guildID string, userIDs []string) map[string]string {
	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		names[id] = "player-" + id
	}
	return names
}

func testTrial() *store.Trial {
	return &store.Trial{
		ID:          7,
		TrialNumber: 3,
		GuildID:     "guild",
		TrackName:   "Rainbow Road",
		Category:    "shrooms",
		Thresholds:  &store.Thresholds{GoldMillis: 140000, SilverMillis: 145000, BronzeMillis: 150000},
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(7 * 24 * time.Hour),
		Status:      store.TrialActive,
	}
}

func TestStandingsRanksAndMedals(t *testing.T) {

	tr := testTrial()
	times := []store.PlayerTime{
		{UserID: "a", TimeMillis: 139000},
		{UserID: "b", TimeMillis: 145000},
		{UserID: "c", TimeMillis: 145000},
		{UserID: "d", TimeMillis: 151000},
	}
	rows := leaderboard.Standings(times, tr)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	// Ties get successive distinct ranks
	for i, row := range rows {
		if row.Rank != i+1 {
			t.Errorf("row %d: expected rank %d, got %d", i, i+1, row.Rank)
		}
	}
	expected := []trial.Medal{trial.MedalGold, trial.MedalSilver, trial.MedalSilver, trial.MedalNone}
	for i, row := range rows {
		if row.Medal != expected[i] {
			t.Errorf("row %d: expected medal %q, got %q", i, expected[i], row.Medal)
		}
	}
}

func TestPostRecordsMessagePointer(t *testing.T) {

	st := &fakeStore{trial: testTrial()}
	msgr := &fakeMessenger{}
	proj := leaderboard.NewProjector(st, msgr)

	tr := *st.trial
	if err := proj.Post(context.Background(), &tr, "chan-1"); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if len(msgr.sent) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(msgr.sent))
	}
	if st.trial.LeaderboardMessageID == nil || *st.trial.LeaderboardMessageID != msgr.sent[0] {
		t.Errorf("stored message pointer not recorded")
	}
	if tr.LeaderboardMessageID == nil || *tr.LeaderboardMessageID != msgr.sent[0] {
		t.Errorf("in-memory trial not updated with message pointer")
	}
}

func TestUpdateEditsInPlace(t *testing.T) {

	st := &fakeStore{trial: testTrial()}
	msgr := &fakeMessenger{}
	proj := leaderboard.NewProjector(st, msgr)

	channel, message := "chan-1", "msg-old"
	st.trial.LeaderboardChannelID = &channel
	st.trial.LeaderboardMessageID = &message

	if err := proj.Update(context.Background(), 7); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(msgr.edited) != 1 || msgr.edited[0] != "msg-old" {
		t.Errorf("expected edit of msg-old, got %v", msgr.edited)
	}
	if len(msgr.sent) != 0 {
		t.Errorf("expected no new message, got %v", msgr.sent)
	}
}

func TestUpdateRepostsWhenMessageDeleted(t *testing.T) {

	st := &fakeStore{trial: testTrial()}
	msgr := &fakeMessenger{lostEdit: true}
	proj := leaderboard.NewProjector(st, msgr)

	channel, message := "chan-1", "msg-gone"
	st.trial.LeaderboardChannelID = &channel
	st.trial.LeaderboardMessageID = &message

	if err := proj.Update(context.Background(), 7); err != nil {
		t.Fatalf("update should self-heal, got: %v", err)
	}
	if len(msgr.sent) != 1 {
		t.Fatalf("expected replacement message, got %d sends", len(msgr.sent))
	}
	if st.trial.LeaderboardMessageID == nil || *st.trial.LeaderboardMessageID != msgr.sent[0] {
		t.Errorf("stored pointer not updated to replacement message")
	}
}

func TestUpdateWithoutMessageFails(t *testing.T) {

	st := &fakeStore{trial: testTrial()}
	proj := leaderboard.NewProjector(st, &fakeMessenger{})

	err := proj.Update(context.Background(), 7)
	if !errors.Is(err, leaderboard.ErrNoMessage) {
		t.Errorf("expected ErrNoMessage, got %v", err)
	}
}

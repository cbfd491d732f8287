package store

const schema = `
CREATE TABLE IF NOT EXISTS weekly_trials (
	id                      BIGSERIAL PRIMARY KEY,
	trial_number            INTEGER NOT NULL,
	guild_id                TEXT NOT NULL,
	track_name              TEXT NOT NULL,
	category                TEXT NOT NULL DEFAULT 'shrooms',
	gold_time_ms            INTEGER,
	silver_time_ms          INTEGER,
	bronze_time_ms          INTEGER,
	start_date              TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	end_date                TIMESTAMPTZ NOT NULL,
	status                  TEXT NOT NULL DEFAULT 'active',
	leaderboard_channel_id  TEXT,
	leaderboard_message_id  TEXT,
	UNIQUE (guild_id, trial_number)
);

CREATE INDEX IF NOT EXISTS idx_weekly_trials_guild_status
	ON weekly_trials (guild_id, status);

CREATE TABLE IF NOT EXISTS player_times (
	id            BIGSERIAL PRIMARY KEY,
	trial_id      BIGINT NOT NULL REFERENCES weekly_trials (id) ON DELETE CASCADE,
	user_id       TEXT NOT NULL,
	time_ms       INTEGER NOT NULL,
	submitted_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (trial_id, user_id)
);

CREATE TABLE IF NOT EXISTS challenges_1v1 (
	id                BIGSERIAL PRIMARY KEY,
	challenge_number  INTEGER NOT NULL,
	guild_id          TEXT NOT NULL,
	track_name        TEXT NOT NULL,
	creator_user_id   TEXT NOT NULL,
	opponent_user_id  TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	accepted_at       TIMESTAMPTZ,
	start_date        TIMESTAMPTZ,
	end_date          TIMESTAMPTZ NOT NULL,
	winner_user_id    TEXT,
	UNIQUE (guild_id, challenge_number)
);

CREATE INDEX IF NOT EXISTS idx_challenges_1v1_guild_status
	ON challenges_1v1 (guild_id, status);

CREATE TABLE IF NOT EXISTS challenge_1v1_times (
	id            BIGSERIAL PRIMARY KEY,
	challenge_id  BIGINT NOT NULL REFERENCES challenges_1v1 (id) ON DELETE CASCADE,
	user_id       TEXT NOT NULL,
	time_ms       INTEGER NOT NULL,
	submitted_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (challenge_id, user_id)
);

CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id                TEXT PRIMARY KEY,
	leaderboard_channel_id  TEXT,
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

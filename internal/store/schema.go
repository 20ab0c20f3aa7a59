package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
)

// Times are stored as unix milliseconds so both dialects share one
// encoding.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS students (
	id         TEXT PRIMARY KEY,
	class      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS syllabus (
	id      TEXT PRIMARY KEY,
	class   TEXT NOT NULL DEFAULT '',
	board   TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL DEFAULT '',
	chapter TEXT NOT NULL DEFAULT '',
	topic   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS activities (
	id                TEXT PRIMARY KEY,
	student_id        TEXT NOT NULL REFERENCES students(id),
	type              TEXT NOT NULL,
	title             TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	question_count    INTEGER NOT NULL DEFAULT 0,
	estimated_minutes INTEGER,
	due_at            INTEGER,
	started_at        INTEGER,
	completed_at      INTEGER,
	score             REAL,
	syllabus_id       TEXT NOT NULL DEFAULT '',
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_student ON activities(student_id);
CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	activity_id    TEXT NOT NULL REFERENCES activities(id),
	type           TEXT NOT NULL,
	content        TEXT NOT NULL,
	options_json   TEXT NOT NULL DEFAULT '',
	correct_answer TEXT NOT NULL DEFAULT '',
	rubric         TEXT NOT NULL DEFAULT '',
	difficulty     INTEGER NOT NULL DEFAULT 3,
	sort_order     INTEGER NOT NULL DEFAULT 0,
	syllabus_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_questions_activity ON questions(activity_id, sort_order);
CREATE TABLE IF NOT EXISTS responses (
	id                  TEXT PRIMARY KEY,
	student_id          TEXT NOT NULL,
	activity_id         TEXT NOT NULL,
	question_id         TEXT NOT NULL,
	answer              TEXT NOT NULL,
	is_correct          INTEGER,
	score               REAL,
	grading_feedback    TEXT NOT NULL DEFAULT '',
	feedback_level      TEXT NOT NULL DEFAULT 'none',
	feedback_rank       INTEGER NOT NULL DEFAULT 0,
	ai_feedback         TEXT NOT NULL DEFAULT '',
	ai_conversation_ref TEXT NOT NULL DEFAULT '',
	attempt_number      INTEGER NOT NULL DEFAULT 1,
	submitted_at        INTEGER NOT NULL,
	UNIQUE (student_id, question_id, attempt_number)
);
CREATE INDEX IF NOT EXISTS idx_responses_activity ON responses(student_id, activity_id);
CREATE TABLE IF NOT EXISTS feedback_progress (
	student_id  TEXT NOT NULL,
	question_id TEXT NOT NULL,
	level       TEXT NOT NULL,
	level_rank  INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (student_id, question_id)
);
CREATE TABLE IF NOT EXISTS doubt_threads (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	class       TEXT NOT NULL DEFAULT '',
	board       TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	chapter     TEXT NOT NULL DEFAULT '',
	topic       TEXT NOT NULL DEFAULT '',
	is_resolved INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_doubt_threads_student ON doubt_threads(student_id, updated_at);
CREATE TABLE IF NOT EXISTS doubt_messages (
	id         TEXT PRIMARY KEY,
	thread_id  TEXT NOT NULL REFERENCES doubt_threads(id),
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	ai_model   TEXT NOT NULL DEFAULT '',
	seq        INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_doubt_messages_thread ON doubt_messages(thread_id, seq);
CREATE TABLE IF NOT EXISTS llm_request_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence      INTEGER NOT NULL,
	timestamp     INTEGER NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	purpose       TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	success       INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	request_body  TEXT NOT NULL DEFAULT '',
	response_body TEXT NOT NULL DEFAULT ''
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
	id         TEXT PRIMARY KEY,
	class      TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS syllabus (
	id      TEXT PRIMARY KEY,
	class   TEXT NOT NULL DEFAULT '',
	board   TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL DEFAULT '',
	chapter TEXT NOT NULL DEFAULT '',
	topic   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS activities (
	id                TEXT PRIMARY KEY,
	student_id        TEXT NOT NULL REFERENCES students(id),
	type              TEXT NOT NULL,
	title             TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	question_count    INTEGER NOT NULL DEFAULT 0,
	estimated_minutes INTEGER,
	due_at            BIGINT,
	started_at        BIGINT,
	completed_at      BIGINT,
	score             DOUBLE PRECISION,
	syllabus_id       TEXT NOT NULL DEFAULT '',
	created_at        BIGINT NOT NULL,
	updated_at        BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_student ON activities(student_id);
CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	activity_id    TEXT NOT NULL REFERENCES activities(id),
	type           TEXT NOT NULL,
	content        TEXT NOT NULL,
	options_json   TEXT NOT NULL DEFAULT '',
	correct_answer TEXT NOT NULL DEFAULT '',
	rubric         TEXT NOT NULL DEFAULT '',
	difficulty     INTEGER NOT NULL DEFAULT 3,
	sort_order     INTEGER NOT NULL DEFAULT 0,
	syllabus_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_questions_activity ON questions(activity_id, sort_order);
CREATE TABLE IF NOT EXISTS responses (
	id                  TEXT PRIMARY KEY,
	student_id          TEXT NOT NULL,
	activity_id         TEXT NOT NULL,
	question_id         TEXT NOT NULL,
	answer              TEXT NOT NULL,
	is_correct          BOOLEAN,
	score               DOUBLE PRECISION,
	grading_feedback    TEXT NOT NULL DEFAULT '',
	feedback_level      TEXT NOT NULL DEFAULT 'none',
	feedback_rank       INTEGER NOT NULL DEFAULT 0,
	ai_feedback         TEXT NOT NULL DEFAULT '',
	ai_conversation_ref TEXT NOT NULL DEFAULT '',
	attempt_number      INTEGER NOT NULL DEFAULT 1,
	submitted_at        BIGINT NOT NULL,
	UNIQUE (student_id, question_id, attempt_number)
);
CREATE INDEX IF NOT EXISTS idx_responses_activity ON responses(student_id, activity_id);
CREATE TABLE IF NOT EXISTS feedback_progress (
	student_id  TEXT NOT NULL,
	question_id TEXT NOT NULL,
	level       TEXT NOT NULL,
	level_rank  INTEGER NOT NULL DEFAULT 0,
	updated_at  BIGINT NOT NULL,
	PRIMARY KEY (student_id, question_id)
);
CREATE TABLE IF NOT EXISTS doubt_threads (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	class       TEXT NOT NULL DEFAULT '',
	board       TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	chapter     TEXT NOT NULL DEFAULT '',
	topic       TEXT NOT NULL DEFAULT '',
	is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  BIGINT NOT NULL,
	updated_at  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_doubt_threads_student ON doubt_threads(student_id, updated_at);
CREATE TABLE IF NOT EXISTS doubt_messages (
	id         TEXT PRIMARY KEY,
	thread_id  TEXT NOT NULL REFERENCES doubt_threads(id),
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	ai_model   TEXT NOT NULL DEFAULT '',
	seq        BIGINT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_doubt_messages_thread ON doubt_messages(thread_id, seq);
CREATE TABLE IF NOT EXISTS llm_request_events (
	id            BIGSERIAL PRIMARY KEY,
	sequence      BIGINT NOT NULL,
	timestamp     BIGINT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	purpose       TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    BIGINT NOT NULL DEFAULT 0,
	success       BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT NOT NULL DEFAULT '',
	request_body  TEXT NOT NULL DEFAULT '',
	response_body TEXT NOT NULL DEFAULT ''
);
`

// migrate creates any missing tables. Statements are idempotent.
func migrate(ctx context.Context, db *sql.DB, dia string) error {
	ddl := schemaSQLite
	if dia == dialect.Postgres {
		ddl = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

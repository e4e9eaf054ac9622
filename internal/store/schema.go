package store

const createTranscriptsTableSQL = `
CREATE TABLE IF NOT EXISTS transcripts (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'uploaded',
	context_theme TEXT NOT NULL DEFAULT '',
	context_confidence REAL NOT NULL DEFAULT 0,
	created_at_utc TEXT NOT NULL,
	processed_at_utc TEXT
)`

const createInsightsTableSQL = `
CREATE TABLE IF NOT EXISTS insights (
	id TEXT PRIMARY KEY,
	transcript_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	type TEXT NOT NULL,
	evidence_json TEXT NOT NULL,
	confidence REAL NOT NULL,
	content_hash TEXT NOT NULL,
	is_duplicate INTEGER NOT NULL DEFAULT 0,
	duplicate_of TEXT NOT NULL DEFAULT '',
	duplicate_similarity REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'new',
	created_at_utc TEXT NOT NULL,
	UNIQUE (transcript_id, content_hash)
)`

const createActivityTableSQL = `
CREATE TABLE IF NOT EXISTS transcript_activity (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transcript_id TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at_utc TEXT NOT NULL
)`

var createIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_insights_transcript ON insights(transcript_id)`,
	`CREATE INDEX IF NOT EXISTS idx_insights_status ON insights(status)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_transcript ON transcript_activity(transcript_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transcripts_status ON transcripts(status)`,
}

const insertTranscriptSQL = `
INSERT INTO transcripts (id, text, status, context_theme, context_confidence, created_at_utc)
VALUES (?, ?, ?, ?, ?, ?)`

const insertInsightSQL = `
INSERT INTO insights (
	id,
	transcript_id,
	title,
	description,
	type,
	evidence_json,
	confidence,
	content_hash,
	is_duplicate,
	duplicate_of,
	duplicate_similarity,
	status,
	created_at_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertActivitySQL = `
INSERT INTO transcript_activity (transcript_id, status, message, created_at_utc)
VALUES (?, ?, ?, ?)`

const selectInsightColumns = `
id, transcript_id, title, description, type, evidence_json, confidence,
content_hash, is_duplicate, duplicate_of, duplicate_similarity, status, created_at_utc`

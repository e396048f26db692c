// Package postgres implements the PostgreSQL persistence layer for Topic Allocation Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE CATALOG (groups, supervisors, work types, users, students)
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create catalog tables
-- Version: 001

CREATE TABLE IF NOT EXISTS groups (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    cmk VARCHAR(200) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS supervisors (
    id UUID PRIMARY KEY,
    full_name VARCHAR(200) NOT NULL UNIQUE,
    subjects VARCHAR(500) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS work_types (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    subject VARCHAR(200) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uniq_work_type UNIQUE (name, subject)
);

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username VARCHAR(100) NOT NULL UNIQUE,
    password_hash VARCHAR(200) NOT NULL,
    role VARCHAR(20) NOT NULL,
    group_id UUID REFERENCES groups(id),
    student_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('admin', 'headman', 'student'))
);

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    full_name VARCHAR(200) NOT NULL,
    phone VARCHAR(50) NOT NULL DEFAULT '',
    group_id UUID NOT NULL REFERENCES groups(id),
    topic_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_group_id ON students(group_id);
CREATE INDEX IF NOT EXISTS idx_students_topic_id ON students(topic_id) WHERE topic_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_users_group_id ON users(group_id) WHERE group_id IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS users;
DROP TABLE IF EXISTS work_types;
DROP TABLE IF EXISTS supervisors;
DROP TABLE IF EXISTS groups;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TOPICS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create topic registry
-- Version: 002

CREATE TABLE IF NOT EXISTS topics (
    id UUID PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'free',
    supervisor_id UUID NOT NULL REFERENCES supervisors(id),
    work_type_id UUID NOT NULL REFERENCES work_types(id),
    group_id UUID REFERENCES groups(id),
    student_id UUID REFERENCES students(id),
    reserved_at TIMESTAMP WITH TIME ZONE,
    reserved_by UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('free', 'reserved', 'assigned'))
);

CREATE INDEX IF NOT EXISTS idx_topics_status ON topics(status);
CREATE INDEX IF NOT EXISTS idx_topics_work_type ON topics(work_type_id);
CREATE INDEX IF NOT EXISTS idx_topics_group ON topics(group_id) WHERE group_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_topics_free_by_type ON topics(work_type_id) WHERE status = 'free';
`

const migration002Down = `
DROP TABLE IF EXISTS topics;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE RESERVATION LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create reservation ledger
-- Version: 003

CREATE TABLE IF NOT EXISTS topic_reservations (
    id UUID PRIMARY KEY,
    topic_id UUID NOT NULL REFERENCES topics(id),
    group_id UUID NOT NULL REFERENCES groups(id),
    reserved_by UUID NOT NULL,
    reserved_at TIMESTAMP WITH TIME ZONE NOT NULL,
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,

    -- one hold per topic at a time
    CONSTRAINT uniq_reservation_topic UNIQUE (topic_id)
);

CREATE INDEX IF NOT EXISTS idx_reservations_reserved_by ON topic_reservations(reserved_by);
CREATE INDEX IF NOT EXISTS idx_reservations_expires_at ON topic_reservations(expires_at);
`

const migration003Down = `
DROP TABLE IF EXISTS topic_reservations;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_catalog",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_topics",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_reservations",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

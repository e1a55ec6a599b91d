package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS value_types (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    slug        TEXT NOT NULL,
    name        TEXT NOT NULL,
    object_kind TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dated_values (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    type_id   INTEGER NOT NULL REFERENCES value_types(id) ON DELETE CASCADE,
    date      TEXT NOT NULL,
    object_id TEXT NOT NULL,
    value     TEXT,
    UNIQUE (type_id, date, object_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_value_types_kind_slug ON value_types(object_kind, slug);
CREATE INDEX IF NOT EXISTS idx_dated_values_object_date ON dated_values(object_id, date);
`

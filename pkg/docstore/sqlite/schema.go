package sqlite

// Schema contains the SQL statements to create the document table.
// Every collection shares one table; documents are stored as JSON text.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT UNIQUE NOT NULL,
    collection  TEXT NOT NULL,
    body        TEXT NOT NULL,
    created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
`

// busyTimeoutMillis is how long a connection waits on a locked database.
const busyTimeoutMillis = 5000

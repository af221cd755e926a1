package world

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"
	_ "github.com/mattn/go-sqlite3"
	"lukechampine.com/blake3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT UNIQUE,
	password_hash TEXT,
	is_admin BOOLEAN DEFAULT 0,
	last_death_ts INTEGER DEFAULT 0,
	prev_death_ts INTEGER DEFAULT 0,
	created_at INTEGER
);
CREATE TABLE IF NOT EXISTS api_keys (
	key TEXT PRIMARY KEY,
	user_id TEXT,
	created_at INTEGER,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS submarines (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	name TEXT,
	state_json TEXT,
	updated_at INTEGER
);
CREATE TABLE IF NOT EXISTS torpedoes (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	parent_sub_id TEXT,
	state_json TEXT,
	updated_at INTEGER
);
CREATE TABLE IF NOT EXISTS fuelers (
	id TEXT PRIMARY KEY,
	owner_user_id TEXT,
	state_json TEXT,
	updated_at INTEGER
);
CREATE TABLE IF NOT EXISTS world_checkpoints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	taken_at INTEGER,
	blake3_hash TEXT,
	lz4_blob BLOB
);
`

// Store is the durable, SQLite-backed persistence layer. Entities are
// kept in memory as the canonical working copy; Store mirrors mutations
// for crash recovery and process restart, per spec.md §6.5.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the SQLite database at path
// and ensures the schema exists.
func OpenStore(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveUser upserts a user row.
func (s *Store) SaveUser(u *User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, username, password_hash, is_admin, last_death_ts, prev_death_ts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			password_hash=excluded.password_hash,
			is_admin=excluded.is_admin,
			last_death_ts=excluded.last_death_ts,
			prev_death_ts=excluded.prev_death_ts`,
		u.ID, u.Username, u.PasswordHash, u.IsAdmin,
		u.LastDeathTS.Unix(), u.PrevDeathTS.Unix(), u.CreatedAt.Unix())
	return err
}

// LoadUsers returns every persisted user, keyed by ID.
func (s *Store) LoadUsers() (map[string]*User, error) {
	rows, err := s.db.Query(`SELECT id, username, password_hash, is_admin, last_death_ts, prev_death_ts, created_at FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*User)
	for rows.Next() {
		u := &User{}
		var lastDeath, prevDeath, createdAt int64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &lastDeath, &prevDeath, &createdAt); err != nil {
			return nil, err
		}
		if lastDeath > 0 {
			u.LastDeathTS = time.Unix(lastDeath, 0)
		}
		if prevDeath > 0 {
			u.PrevDeathTS = time.Unix(prevDeath, 0)
		}
		u.CreatedAt = time.Unix(createdAt, 0)
		out[u.ID] = u
	}
	return out, rows.Err()
}

// SaveAPIKey persists a new opaque key mapping.
func (s *Store) SaveAPIKey(k *ApiKey) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO api_keys (key, user_id, created_at) VALUES (?, ?, ?)`,
		k.Key, k.UserID, k.CreatedAt.Unix())
	return err
}

// LoadAPIKeys returns every persisted key, keyed by the opaque token.
func (s *Store) LoadAPIKeys() (map[string]*ApiKey, error) {
	rows, err := s.db.Query(`SELECT key, user_id, created_at FROM api_keys`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*ApiKey)
	for rows.Next() {
		k := &ApiKey{}
		var createdAt int64
		if err := rows.Scan(&k.Key, &k.UserID, &createdAt); err != nil {
			return nil, err
		}
		k.CreatedAt = time.Unix(createdAt, 0)
		out[k.Key] = k
	}
	return out, rows.Err()
}

// UpsertSubmarine mirrors a submarine's full state as an opaque JSON blob,
// cheap enough to call every tick for every dirty submarine.
func (s *Store) UpsertSubmarine(sub *Submarine) error {
	blob, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO submarines (id, user_id, name, state_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state_json=excluded.state_json, updated_at=excluded.updated_at`,
		sub.ID, sub.UserID, sub.Name, string(blob), time.Now().Unix())
	return err
}

// DeleteSubmarine removes a submarine's persisted row.
func (s *Store) DeleteSubmarine(id string) error {
	_, err := s.db.Exec(`DELETE FROM submarines WHERE id=?`, id)
	return err
}

// LoadSubmarines returns every persisted submarine, keyed by ID.
func (s *Store) LoadSubmarines() (map[string]*Submarine, error) {
	rows, err := s.db.Query(`SELECT state_json FROM submarines`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*Submarine)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		sub := &Submarine{}
		if err := json.Unmarshal([]byte(blob), sub); err != nil {
			return nil, err
		}
		out[sub.ID] = sub
	}
	return out, rows.Err()
}

// UpsertTorpedo mirrors a torpedo's full state.
func (s *Store) UpsertTorpedo(t *Torpedo) error {
	blob, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO torpedoes (id, user_id, parent_sub_id, state_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state_json=excluded.state_json, updated_at=excluded.updated_at`,
		t.ID, t.UserID, t.ParentSubID, string(blob), time.Now().Unix())
	return err
}

// DeleteTorpedo removes a torpedo's persisted row.
func (s *Store) DeleteTorpedo(id string) error {
	_, err := s.db.Exec(`DELETE FROM torpedoes WHERE id=?`, id)
	return err
}

// LoadTorpedoes returns every persisted torpedo, keyed by ID.
func (s *Store) LoadTorpedoes() (map[string]*Torpedo, error) {
	rows, err := s.db.Query(`SELECT state_json FROM torpedoes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*Torpedo)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		t := &Torpedo{}
		if err := json.Unmarshal([]byte(blob), t); err != nil {
			return nil, err
		}
		out[t.ID] = t
	}
	return out, rows.Err()
}

// UpsertFueler mirrors a fueler's full state.
func (s *Store) UpsertFueler(f *Fueler) error {
	blob, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO fuelers (id, owner_user_id, state_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state_json=excluded.state_json, updated_at=excluded.updated_at`,
		f.ID, f.OwnerUserID, string(blob), time.Now().Unix())
	return err
}

// DeleteFueler removes a fueler's persisted row.
func (s *Store) DeleteFueler(id string) error {
	_, err := s.db.Exec(`DELETE FROM fuelers WHERE id=?`, id)
	return err
}

// LoadFuelers returns every persisted fueler, keyed by ID.
func (s *Store) LoadFuelers() (map[string]*Fueler, error) {
	rows, err := s.db.Query(`SELECT state_json FROM fuelers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*Fueler)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		f := &Fueler{}
		if err := json.Unmarshal([]byte(blob), f); err != nil {
			return nil, err
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

// Checkpoint LZ4-compresses a full-state JSON blob, records a blake3
// integrity hash alongside it, and stores both in world_checkpoints.
// This is independent of the row-level entity tables above, which remain
// the source of truth. Nothing in the server calls Checkpoint, and no
// code reads checkpoints back.
func (s *Store) Checkpoint(blob []byte) (hash string, err error) {
	compressed := compressLZ4(blob)
	sum := blake3.Sum256(blob)
	hash = hex.EncodeToString(sum[:])
	_, err = s.db.Exec(`INSERT INTO world_checkpoints (taken_at, blake3_hash, lz4_blob) VALUES (?, ?, ?)`,
		time.Now().Unix(), hash, compressed)
	return hash, err
}

func compressLZ4(src []byte) []byte {
	var buf bufWriter
	zw := lz4.NewWriter(&buf)
	_, _ = zw.Write(src)
	_ = zw.Close()
	return buf.b
}

// bufWriter is a minimal io.Writer backed by a growable slice, avoiding a
// bytes.Buffer import for this single use.
type bufWriter struct{ b []byte }

func (w *bufWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// World is the in-memory working copy of every live entity, guarded by a
// single mutex per spec.md §5. The tick loop and every control-API
// handler take Mu before touching any field below.
type World struct {
	Mu sync.Mutex

	Users     map[string]*User
	APIKeys   map[string]*ApiKey
	Subs      map[string]*Submarine
	Torps     map[string]*Torpedo
	Fuelers   map[string]*Fueler
	Clouds    []*WeatherCloud

	store *Store
}

// NewWorld constructs a World backed by store, loading any persisted
// entities into memory.
func NewWorld(store *Store) (*World, error) {
	users, err := store.LoadUsers()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	keys, err := store.LoadAPIKeys()
	if err != nil {
		return nil, fmt.Errorf("load api keys: %w", err)
	}
	subs, err := store.LoadSubmarines()
	if err != nil {
		return nil, fmt.Errorf("load submarines: %w", err)
	}
	torps, err := store.LoadTorpedoes()
	if err != nil {
		return nil, fmt.Errorf("load torpedoes: %w", err)
	}
	fuelers, err := store.LoadFuelers()
	if err != nil {
		return nil, fmt.Errorf("load fuelers: %w", err)
	}

	return &World{
		Users:   users,
		APIKeys: keys,
		Subs:    subs,
		Torps:   torps,
		Fuelers: fuelers,
		store:   store,
	}, nil
}

// Store exposes the underlying persistence layer for commit-time writes.
func (w *World) Store() *Store { return w.store }

// UserByAPIKey resolves an opaque key to its owning user. Caller must
// hold Mu (or a read-safe snapshot) already.
func (w *World) UserByAPIKey(key string) (*User, bool) {
	k, ok := w.APIKeys[key]
	if !ok {
		return nil, false
	}
	u, ok := w.Users[k.UserID]
	return u, ok
}

// SubsByUser returns the live submarines owned by userID.
func (w *World) SubsByUser(userID string) []*Submarine {
	var out []*Submarine
	for _, s := range w.Subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// FuelerByUser returns the active fueler bound to userID, if any.
func (w *World) FuelerByUser(userID string) (*Fueler, bool) {
	for _, f := range w.Fuelers {
		if f.OwnerUserID == userID {
			return f, true
		}
	}
	return nil, false
}

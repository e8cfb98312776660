package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alienxp03/parley/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS negotiations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		party_a_json TEXT NOT NULL,
		party_b_json TEXT NOT NULL,
		catalog_json TEXT NOT NULL,
		catalog_size INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		max_rounds INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		outcome_json TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		negotiation_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		number INTEGER NOT NULL,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		performative TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (negotiation_id) REFERENCES negotiations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_turns_negotiation_id ON turns(negotiation_id);
	CREATE INDEX IF NOT EXISTS idx_negotiations_status ON negotiations(status);
	CREATE INDEX IF NOT EXISTS idx_negotiations_created_at ON negotiations(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// encodedNegotiation holds the JSON columns of a negotiation row.
type encodedNegotiation struct {
	partyA, partyB, catalog string
	outcome                 *string
}

func encodeNegotiation(n *core.Negotiation) (encodedNegotiation, error) {
	var enc encodedNegotiation

	a, err := json.Marshal(n.PartyA)
	if err != nil {
		return enc, fmt.Errorf("failed to marshal party A: %w", err)
	}
	b, err := json.Marshal(n.PartyB)
	if err != nil {
		return enc, fmt.Errorf("failed to marshal party B: %w", err)
	}
	catalog, err := json.Marshal(n.Catalog)
	if err != nil {
		return enc, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	enc.partyA, enc.partyB, enc.catalog = string(a), string(b), string(catalog)

	if n.Outcome != nil {
		data, err := json.Marshal(n.Outcome)
		if err != nil {
			return enc, fmt.Errorf("failed to marshal outcome: %w", err)
		}
		str := string(data)
		enc.outcome = &str
	}
	return enc, nil
}

// CreateNegotiation creates a new negotiation.
func (s *SQLiteStorage) CreateNegotiation(n *core.Negotiation) error {
	enc, err := encodeNegotiation(n)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO negotiations (id, title, party_a_json, party_b_json, catalog_json, catalog_size, seed, max_rounds, status, outcome_json, created_at, updated_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		n.ID,
		n.Title,
		enc.partyA,
		enc.partyB,
		enc.catalog,
		len(n.Catalog),
		n.Seed,
		n.MaxRounds,
		n.Status,
		enc.outcome,
		n.CreatedAt,
		n.UpdatedAt,
		n.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert negotiation: %w", err)
	}
	return nil
}

// GetNegotiation retrieves a negotiation by ID. It returns ErrNotFound when
// the negotiation does not exist.
func (s *SQLiteStorage) GetNegotiation(id string) (*core.Negotiation, error) {
	query := `
	SELECT id, title, party_a_json, party_b_json, catalog_json, seed, max_rounds, status, outcome_json, created_at, updated_at, completed_at
	FROM negotiations
	WHERE id = ?
	`

	var n core.Negotiation
	var partyA, partyB, catalog string
	var outcome sql.NullString
	var completedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&n.ID,
		&n.Title,
		&partyA,
		&partyB,
		&catalog,
		&n.Seed,
		&n.MaxRounds,
		&n.Status,
		&outcome,
		&n.CreatedAt,
		&n.UpdatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get negotiation: %w", err)
	}

	if err := json.Unmarshal([]byte(partyA), &n.PartyA); err != nil {
		return nil, fmt.Errorf("failed to unmarshal party A: %w", err)
	}
	if err := json.Unmarshal([]byte(partyB), &n.PartyB); err != nil {
		return nil, fmt.Errorf("failed to unmarshal party B: %w", err)
	}
	if err := json.Unmarshal([]byte(catalog), &n.Catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	if outcome.Valid {
		var o core.Outcome
		if err := json.Unmarshal([]byte(outcome.String), &o); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
		n.Outcome = &o
	}

	if completedAt.Valid {
		n.CompletedAt = &completedAt.Time
	}

	return &n, nil
}

// UpdateNegotiation updates an existing negotiation and bumps UpdatedAt.
func (s *SQLiteStorage) UpdateNegotiation(n *core.Negotiation) error {
	enc, err := encodeNegotiation(n)
	if err != nil {
		return err
	}

	n.UpdatedAt = time.Now()

	query := `
	UPDATE negotiations
	SET title = ?, party_a_json = ?, party_b_json = ?, catalog_json = ?, catalog_size = ?, seed = ?, max_rounds = ?, status = ?, outcome_json = ?, updated_at = ?, completed_at = ?
	WHERE id = ?
	`

	res, err := s.db.Exec(query,
		n.Title,
		enc.partyA,
		enc.partyB,
		enc.catalog,
		len(n.Catalog),
		n.Seed,
		n.MaxRounds,
		n.Status,
		enc.outcome,
		n.UpdatedAt,
		n.CompletedAt,
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update negotiation: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, n.ID)
	}
	return nil
}

// StartNegotiation switches a negotiation from pending to in_progress. It
// returns ErrNotPending when the negotiation exists in any other status.
func (s *SQLiteStorage) StartNegotiation(id string) error {
	res, err := s.db.Exec(
		"UPDATE negotiations SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		core.StatusInProgress, time.Now(), id, core.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to start negotiation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to start negotiation: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRow("SELECT COUNT(*) FROM negotiations WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to start negotiation: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", ErrNotPending, id)
}

// DeleteNegotiation deletes a negotiation and its turns.
func (s *SQLiteStorage) DeleteNegotiation(id string) error {
	res, err := s.db.Exec("DELETE FROM negotiations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete negotiation: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListNegotiations returns negotiation summaries, newest first.
func (s *SQLiteStorage) ListNegotiations(limit, offset int) ([]*core.NegotiationSummary, error) {
	query := `
	SELECT n.id, n.title, n.status, n.party_a_json, n.party_b_json, n.catalog_size, n.outcome_json, n.created_at,
		   (SELECT COUNT(*) FROM turns WHERE negotiation_id = n.id) as turn_count
	FROM negotiations n
	ORDER BY n.created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	defer rows.Close()

	var summaries []*core.NegotiationSummary
	for rows.Next() {
		var summary core.NegotiationSummary
		var partyA, partyB string
		var outcome sql.NullString

		err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.Status,
			&partyA,
			&partyB,
			&summary.CatalogSize,
			&outcome,
			&summary.CreatedAt,
			&summary.TurnCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan negotiation summary: %w", err)
		}

		var a, b core.Party
		if err := json.Unmarshal([]byte(partyA), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal party A: %w", err)
		}
		if err := json.Unmarshal([]byte(partyB), &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal party B: %w", err)
		}
		summary.PartyA = core.PartySpec{Name: a.Name, Profile: a.Profile}.String()
		summary.PartyB = core.PartySpec{Name: b.Name, Profile: b.Profile}.String()

		if outcome.Valid {
			var o core.Outcome
			if err := json.Unmarshal([]byte(outcome.String), &o); err == nil && o.Agreed {
				summary.Agreement = o.Alternative
			}
		}

		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// AddTurn adds a turn to a negotiation.
func (s *SQLiteStorage) AddTurn(turn *core.Turn) error {
	query := `
	INSERT INTO turns (id, negotiation_id, round, number, sender, receiver, performative, content, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		turn.ID,
		turn.NegotiationID,
		turn.Round,
		turn.Number,
		turn.Sender,
		turn.Receiver,
		turn.Performative,
		turn.Content,
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

const turnColumns = `id, negotiation_id, round, number, sender, receiver, performative, content, created_at`

func scanTurn(row interface{ Scan(...any) error }) (*core.Turn, error) {
	var turn core.Turn
	err := row.Scan(
		&turn.ID,
		&turn.NegotiationID,
		&turn.Round,
		&turn.Number,
		&turn.Sender,
		&turn.Receiver,
		&turn.Performative,
		&turn.Content,
		&turn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

// GetTurns returns all turns of a negotiation in order.
func (s *SQLiteStorage) GetTurns(negotiationID string) ([]*core.Turn, error) {
	query := `SELECT ` + turnColumns + ` FROM turns WHERE negotiation_id = ? ORDER BY number ASC`

	rows, err := s.db.Query(query, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	var turns []*core.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

// GetLatestTurn returns the most recent turn of a negotiation, or nil.
func (s *SQLiteStorage) GetLatestTurn(negotiationID string) (*core.Turn, error) {
	query := `SELECT ` + turnColumns + ` FROM turns WHERE negotiation_id = ? ORDER BY number DESC LIMIT 1`

	turn, err := scanTurn(s.db.QueryRow(query, negotiationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest turn: %w", err)
	}
	return turn, nil
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parley.db"
	}
	return filepath.Join(home, ".parley", "parley.db")
}

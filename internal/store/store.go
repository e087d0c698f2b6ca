// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives completed run reports in a SQLite database and
// offers full-text search over the archived paper summaries.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-companion/pkg/types"
)

const dbFile = "companion.db"

// Store manages the run archive database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at cfg.Dir/companion.db,
// creating the schema on first use.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			created_at TEXT NOT NULL,
			runtime_seconds REAL,
			num_papers INTEGER,
			report TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			paper_id TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			published TEXT,
			pdf_url TEXT,
			summary TEXT,
			search_text TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_run_id ON papers(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(search_text, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, search_text) VALUES (new.rowid, new.search_text);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, search_text) VALUES('delete', old.rowid, old.search_text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// SaveReport archives a finished run and its papers, returning the run ID.
func (s *Store) SaveReport(ctx context.Context, report *types.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("marshaling report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (query, created_at, runtime_seconds, num_papers, report)
		 VALUES (?, ?, ?, ?, ?)`,
		report.Query, time.Now().UTC().Format(time.RFC3339),
		report.RuntimeSeconds, len(report.Papers), string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (run_id, paper_id, title, authors, published, pdf_url, summary, search_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range report.Papers {
		authorsJSON, _ := json.Marshal(p.Authors)
		summaryJSON, _ := json.Marshal(p.PaperSummary)
		_, err := stmt.ExecContext(ctx,
			runID, p.PaperID, p.Title, string(authorsJSON), p.Published, p.PDFURL,
			string(summaryJSON), searchText(p),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.PaperID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// searchText flattens the searchable parts of a paper record for FTS.
func searchText(p types.PaperRecord) string {
	ps := p.PaperSummary
	parts := []string{p.Title, ps.OverallProblem}
	parts = append(parts, ps.OverallMethods...)
	parts = append(parts, ps.OverallDatasets...)
	parts = append(parts, ps.OverallLimitations...)
	return strings.Join(parts, "\n")
}

// RunInfo is one archived run's listing entry.
type RunInfo struct {
	ID             int64   `json:"id" yaml:"id"`
	Query          string  `json:"query" yaml:"query"`
	CreatedAt      string  `json:"created_at" yaml:"created_at"`
	RuntimeSeconds float64 `json:"runtime_seconds" yaml:"runtime_seconds"`
	NumPapers      int     `json:"num_papers" yaml:"num_papers"`
}

// ListRuns returns archived runs, newest first. A non-positive limit uses
// the store default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, created_at, runtime_seconds, num_papers
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.Query, &r.CreatedAt, &r.RuntimeSeconds, &r.NumPapers); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetReport loads a full archived report by run ID.
func (s *Store) GetReport(ctx context.Context, runID int64) (*types.Report, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM runs WHERE id = ?`, runID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", runID, err)
	}

	var report types.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("parsing archived report: %w", err)
	}
	return &report, nil
}

// PaperHit is one full-text search match across archived papers.
type PaperHit struct {
	RunID     int64             `json:"run_id" yaml:"run_id"`
	RunQuery  string            `json:"run_query" yaml:"run_query"`
	PaperID   string            `json:"paper_id" yaml:"paper_id"`
	Title     string            `json:"title" yaml:"title"`
	Authors   []string          `json:"authors" yaml:"authors"`
	Published string            `json:"published" yaml:"published"`
	PDFURL    string            `json:"pdf_url" yaml:"pdf_url"`
	Summary   types.PaperSummary `json:"summary" yaml:"summary"`
}

// Search runs an FTS5 query over archived paper summaries, ranked by
// relevance. A non-positive maxResults uses the store default.
func (s *Store) Search(ctx context.Context, query string, maxResults int) ([]PaperHit, error) {
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.run_id, r.query, p.paper_id, p.title, p.authors, p.published, p.pdf_url, p.summary
		 FROM papers_fts
		 JOIN papers p ON p.rowid = papers_fts.rowid
		 JOIN runs r ON r.id = p.run_id
		 WHERE papers_fts MATCH ?
		 ORDER BY papers_fts.rank
		 LIMIT ?`, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var hits []PaperHit
	for rows.Next() {
		var (
			hit         PaperHit
			authorsJSON sql.NullString
			summaryJSON sql.NullString
		)
		if err := rows.Scan(&hit.RunID, &hit.RunQuery, &hit.PaperID, &hit.Title,
			&authorsJSON, &hit.Published, &hit.PDFURL, &summaryJSON); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &hit.Authors)
		}
		if summaryJSON.Valid {
			json.Unmarshal([]byte(summaryJSON.String), &hit.Summary)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

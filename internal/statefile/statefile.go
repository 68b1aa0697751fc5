// Package statefile implements the one opaque persisted state file this
// module allows as an exception to "no incremental persistence":
// a SQLite-backed snapshot of a CodeBase's FQSEN->signature map, stamped
// with a run id, so a later invocation can compare or skip re-hydrating
// unchanged ancestors. Nothing outside this package interprets the file's
// internal schema.
package statefile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/shinyvision/ward/internal/codebase"
)

var log = commonlog.GetLoggerf("ward.statefile")

// paramSep separates a signature's parameter-type strings within one
// stored row; chosen to be a byte no PHP type string can itself contain.
const paramSep = "\x1f"

const schema = `
CREATE TABLE IF NOT EXISTS ward_runs (
	run_id     TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ward_signatures (
	run_id      TEXT NOT NULL REFERENCES ward_runs(run_id),
	fqsen       TEXT NOT NULL,
	param_types TEXT NOT NULL,
	return_type TEXT NOT NULL
);
`

// Snapshot is one persisted run: the run id stamped at Save time, when it
// was recorded, and the signature entries captured from
// codebase.CodeBase.DumpSignatures at that point.
type Snapshot struct {
	RunID     string
	CreatedAt time.Time
	Entries   []codebase.SignatureEntry
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statefile: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statefile: initializing schema in %s: %w", path, err)
	}
	return db, nil
}

// Save snapshots cb's current signature map into a new run row in the
// SQLite file at path, returning the generated run id. Repeated Saves to
// the same file accumulate rows under distinct run ids instead of
// overwriting one row — "single opaque state file" bounds the
// file count to one, not the run count inside it; see Prune for trimming
// history.
func Save(ctx context.Context, path string, cb *codebase.CodeBase) (string, error) {
	db, err := open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	entries := cb.DumpSignatures()
	runID := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("statefile: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO ward_runs (run_id, created_at) VALUES (?, ?)`, runID, createdAt); err != nil {
		return "", fmt.Errorf("statefile: recording run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ward_signatures (run_id, fqsen, param_types, return_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("statefile: preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID, e.FQSEN, strings.Join(e.ParamTypes, paramSep), e.ReturnType); err != nil {
			return "", fmt.Errorf("statefile: writing signature %s: %w", e.FQSEN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("statefile: committing run %s: %w", runID, err)
	}

	log.Infof("saved run %s to %s: %s signatures", runID, path, humanize.Comma(int64(len(entries))))
	return runID, nil
}

// Load reads back a run from path: the most recently saved one when want
// is empty, or a specific run id otherwise.
func Load(ctx context.Context, path string, want string) (*Snapshot, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	runID, createdAt, err := resolveRun(ctx, db, path, want)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT fqsen, param_types, return_type FROM ward_signatures WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("statefile: querying signatures for run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []codebase.SignatureEntry
	for rows.Next() {
		var fqsen, params, ret string
		if err := rows.Scan(&fqsen, &params, &ret); err != nil {
			return nil, fmt.Errorf("statefile: scanning signature row: %w", err)
		}
		var paramTypes []string
		if params != "" {
			paramTypes = strings.Split(params, paramSep)
		}
		entries = append(entries, codebase.SignatureEntry{FQSEN: fqsen, ParamTypes: paramTypes, ReturnType: ret})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statefile: reading signature rows: %w", err)
	}

	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("statefile: parsing run %s timestamp: %w", runID, err)
	}

	log.Debugf("loaded run %s from %s: %s signatures", runID, path, humanize.Comma(int64(len(entries))))
	return &Snapshot{RunID: runID, CreatedAt: created, Entries: entries}, nil
}

func resolveRun(ctx context.Context, db *sql.DB, path, want string) (runID, createdAt string, err error) {
	if want == "" {
		row := db.QueryRowContext(ctx, `SELECT run_id, created_at FROM ward_runs ORDER BY created_at DESC, rowid DESC LIMIT 1`)
		if err := row.Scan(&runID, &createdAt); err != nil {
			if err == sql.ErrNoRows {
				return "", "", fmt.Errorf("statefile: no runs recorded in %s", path)
			}
			return "", "", fmt.Errorf("statefile: finding latest run: %w", err)
		}
		return runID, createdAt, nil
	}
	row := db.QueryRowContext(ctx, `SELECT created_at FROM ward_runs WHERE run_id = ?`, want)
	if err := row.Scan(&createdAt); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("statefile: run %s not found in %s", want, path)
		}
		return "", "", fmt.Errorf("statefile: finding run %s: %w", want, err)
	}
	return want, createdAt, nil
}

// Prune deletes every run in path except the keep most recently created
// ones, keeping the state file itself from growing without bound across
// many invocations.
func Prune(ctx context.Context, path string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statefile: beginning prune transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ward_signatures WHERE run_id NOT IN (SELECT run_id FROM ward_runs ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep); err != nil {
		return fmt.Errorf("statefile: pruning signatures in %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ward_runs WHERE run_id NOT IN (SELECT run_id FROM ward_runs ORDER BY created_at DESC, rowid DESC LIMIT ?)`, keep); err != nil {
		return fmt.Errorf("statefile: pruning runs in %s: %w", path, err)
	}
	return tx.Commit()
}

package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"warrantsim.ai/internal/persistence/snapshot"
	"warrantsim.ai/internal/sim/warrants"
)

// SQLiteIndex is a queryable secondary index over the tick and audit
// streams. Writes go through a single goroutine; the JSONL logs remain the
// source of truth, so a dropped row is acceptable under pressure.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     warrants.TickLogEntry
	audit    warrants.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick      int64
	Path      string
	Seed      int64
	Available int
	GivenOut  int
	Taken     int
	Accepted  int
	Pending   int
	Subjects  int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			ops INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ops (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			client_id TEXT NOT NULL,
			op TEXT NOT NULL,
			act_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ops_client_tick ON ops(client_id, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			warrant_id TEXT,
			faction_id TEXT,
			subject_id TEXT,
			amount INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_warrant_tick ON audits(warrant_id, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			available INTEGER NOT NULL,
			given_out INTEGER NOT NULL,
			taken INTEGER NOT NULL,
			accepted INTEGER NOT NULL,
			pending INTEGER NOT NULL,
			subjects INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry warrants.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry warrants.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.BoardV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:      snap.Header.Tick,
		Path:      path,
		Seed:      snap.Seed,
		Available: len(snap.Available),
		GivenOut:  len(snap.GivenOut),
		Taken:     len(snap.Taken),
		Accepted:  len(snap.Accepted),
		Pending:   len(snap.Pending),
		Subjects:  len(snap.Subjects),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// LatestSnapshotPath returns the path of the most recent recorded
// snapshot, or "" when none exists yet.
func (s *SQLiteIndex) LatestSnapshotPath() (string, int64, error) {
	var path string
	var tick int64
	err := s.db.QueryRow(`SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`).Scan(&path, &tick)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return path, tick, nil
}

// WarrantHistory returns the audit rows for one warrant in tick order.
func (s *SQLiteIndex) WarrantHistory(warrantID string, limit int) ([]warrants.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT raw_json FROM audits WHERE warrant_id = ? ORDER BY tick, seq LIMIT ?`,
		warrantID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []warrants.AuditEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e warrants.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,ops,raw_json) VALUES(?,?,?,?)`)
	insertOp, _ := s.db.Prepare(`INSERT OR REPLACE INTO ops(tick,seq,client_id,op,act_json) VALUES(?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,warrant_id,faction_id,subject_id,amount,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,available,given_out,taken,accepted,pending,subjects) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertOp != nil {
			_ = insertOp.Close()
		}
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick int64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					r.tick.Tick,
					r.tick.Digest,
					len(r.tick.Ops),
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, op := range r.tick.Ops {
				if insertOp == nil {
					break
				}
				actJSON, _ := json.Marshal(op.Act)
				if _, err := tx.Stmt(insertOp).Exec(r.tick.Tick, i, op.ClientID, op.Act.Op, string(actJSON)); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					a.Tick,
					seq,
					a.Actor,
					a.Action,
					a.WarrantID,
					a.FactionID,
					a.SubjectID,
					a.Amount,
					a.Reason,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					sn.Tick,
					sn.Path,
					sn.Seed,
					sn.Available,
					sn.GivenOut,
					sn.Taken,
					sn.Accepted,
					sn.Pending,
					sn.Subjects,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}

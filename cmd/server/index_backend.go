package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"warrantsim.ai/internal/persistence/indexdb"
	"warrantsim.ai/internal/persistence/snapshot"
	"warrantsim.ai/internal/sim/warrants"
)

// runtimeIndex bundles the local SQLite index with the optional remote
// audit mirror. All methods are nil-safe so a disabled index costs one
// branch.
type runtimeIndex struct {
	sqlite *indexdb.SQLiteIndex
	d1     *indexdb.D1Index
}

func openRuntimeIndex(boardDir, boardID string, disabled bool, logger *log.Logger) (*runtimeIndex, error) {
	if disabled {
		return nil, nil
	}
	sq, err := indexdb.OpenSQLite(filepath.Join(boardDir, "index.db"))
	if err != nil {
		return nil, err
	}
	idx := &runtimeIndex{sqlite: sq}

	if endpoint := strings.TrimSpace(os.Getenv("WS_D1_ENDPOINT")); endpoint != "" {
		d1, err := indexdb.OpenD1(indexdb.D1Config{
			Endpoint: endpoint,
			Token:    strings.TrimSpace(os.Getenv("WS_D1_TOKEN")),
			BoardID:  boardID,
			Logger:   logger,
		})
		if err != nil {
			logger.Printf("d1 mirror disabled: %v", err)
		} else {
			idx.d1 = d1
			logger.Printf("d1 audit mirror enabled")
		}
	}
	return idx, nil
}

func (i *runtimeIndex) Close() error {
	if i == nil {
		return nil
	}
	if i.d1 != nil {
		_ = i.d1.Close()
	}
	if i.sqlite != nil {
		return i.sqlite.Close()
	}
	return nil
}

func (i *runtimeIndex) tick() warrants.TickLogger {
	if i == nil || i.sqlite == nil {
		return nil
	}
	return i.sqlite
}

func (i *runtimeIndex) audit() warrants.AuditLogger {
	if i == nil {
		return nil
	}
	return indexAuditFanout{sqlite: i.sqlite, d1: i.d1}
}

func (i *runtimeIndex) RecordSnapshot(path string, snap snapshot.BoardV1) {
	if i == nil || i.sqlite == nil {
		return
	}
	i.sqlite.RecordSnapshot(path, snap)
}

type indexAuditFanout struct {
	sqlite *indexdb.SQLiteIndex
	d1     *indexdb.D1Index
}

func (f indexAuditFanout) WriteAudit(e warrants.AuditEntry) error {
	if f.sqlite != nil {
		_ = f.sqlite.WriteAudit(e)
	}
	if f.d1 != nil {
		_ = f.d1.WriteAudit(e)
	}
	return nil
}

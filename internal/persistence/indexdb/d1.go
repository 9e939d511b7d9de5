package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"warrantsim.ai/internal/sim/warrants"
)

// D1Config drives the optional remote mirror of the audit stream, useful
// when the board runs on a box whose local disk is not worth trusting.
type D1Config struct {
	Endpoint      string
	Token         string
	BoardID       string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	Logger        *log.Logger
}

// D1Index batches audit entries and ships them to a Cloudflare D1 HTTP
// endpoint. Strictly best-effort: the local SQLite index and the JSONL
// logs stay authoritative, and a failed upload only logs.
type D1Index struct {
	cfg        D1Config
	httpClient *http.Client

	ch   chan warrants.AuditEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Int64
}

func OpenD1(cfg D1Config) (*D1Index, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty d1 endpoint")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	d := &D1Index{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		ch:         make(chan warrants.AuditEntry, 16384),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func (d *D1Index) Close() error {
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *D1Index) WriteAudit(entry warrants.AuditEntry) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	select {
	case d.ch <- entry:
	default:
		d.dropped.Add(1)
	}
	return nil
}

func (d *D1Index) Dropped() int64 { return d.dropped.Load() }

func (d *D1Index) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]warrants.AuditEntry, 0, d.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := d.upload(batch); err != nil && d.cfg.Logger != nil {
			d.cfg.Logger.Printf("d1 upload failed (%d entries): %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

type d1Statement struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func (d *D1Index) upload(batch []warrants.AuditEntry) error {
	stmts := make([]d1Statement, 0, len(batch))
	for _, a := range batch {
		raw, _ := json.Marshal(a)
		stmts = append(stmts, d1Statement{
			SQL: `INSERT OR REPLACE INTO audits(board_id,tick,actor,action,warrant_id,faction_id,subject_id,amount,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			Params: []any{
				d.cfg.BoardID, a.Tick, a.Actor, a.Action,
				a.WarrantID, a.FactionID, a.SubjectID, a.Amount, a.Reason, string(raw),
			},
		})
	}
	body, err := json.Marshal(stmts)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.Token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("d1 status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

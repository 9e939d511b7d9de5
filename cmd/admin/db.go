package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	boardID := fs.String("board", "", "board id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	warrantID := fs.String("warrant", "", "warrant_id filter (audits)")
	clientID := fs.String("client", "", "client_id filter (ops)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*boardID) == "" {
			fmt.Fprintln(os.Stderr, "missing -board or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "boards", *boardID, "index.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "snapshots":
		rows, err := db.Query(`SELECT tick,path,seed,available,given_out,taken,accepted,pending,subjects FROM snapshots ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick      int64  `json:"tick"`
				Path      string `json:"path"`
				Seed      int64  `json:"seed"`
				Available int    `json:"available"`
				GivenOut  int    `json:"given_out"`
				Taken     int    `json:"taken"`
				Accepted  int    `json:"accepted"`
				Pending   int    `json:"pending"`
				Subjects  int    `json:"subjects"`
			}
			if err := rows.Scan(&r.Tick, &r.Path, &r.Seed, &r.Available, &r.GivenOut, &r.Taken, &r.Accepted, &r.Pending, &r.Subjects); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		failOn(rows.Err())

	case "ticks":
		rows, err := db.Query(`SELECT tick,digest,ops FROM ticks ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick   int64  `json:"tick"`
				Digest string `json:"digest"`
				Ops    int    `json:"ops"`
			}
			if err := rows.Scan(&r.Tick, &r.Digest, &r.Ops); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		failOn(rows.Err())

	case "ops":
		query := `SELECT tick,seq,client_id,op,act_json FROM ops ORDER BY tick DESC, seq DESC LIMIT ?`
		qargs := []any{*limit}
		if strings.TrimSpace(*clientID) != "" {
			query = `SELECT tick,seq,client_id,op,act_json FROM ops WHERE client_id=? ORDER BY tick DESC, seq DESC LIMIT ?`
			qargs = []any{strings.TrimSpace(*clientID), *limit}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick     int64           `json:"tick"`
				Seq      int             `json:"seq"`
				ClientID string          `json:"client_id"`
				Op       string          `json:"op"`
				Act      json.RawMessage `json:"act"`
			}
			var actJSON string
			if err := rows.Scan(&r.Tick, &r.Seq, &r.ClientID, &r.Op, &actJSON); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			r.Act = json.RawMessage(actJSON)
			printJSON(r)
		}
		failOn(rows.Err())

	case "audits":
		query := `SELECT raw_json FROM audits ORDER BY tick DESC, seq DESC LIMIT ?`
		qargs := []any{*limit}
		if strings.TrimSpace(*warrantID) != "" {
			query = `SELECT raw_json FROM audits WHERE warrant_id=? ORDER BY tick, seq LIMIT ?`
			qargs = []any{strings.TrimSpace(*warrantID), *limit}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			fmt.Println(raw)
		}
		failOn(rows.Err())

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-board BOARD|-db PATH] [-warrant W] [-client C] snapshots|ticks|ops|audits")
		os.Exit(2)
	}
}

func failOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "warrantsim.ai/internal/persistence/log"
	"warrantsim.ai/internal/persistence/snapshot"
	"warrantsim.ai/internal/sim/gen"
	"warrantsim.ai/internal/sim/host"
	"warrantsim.ai/internal/sim/tuning"
	"warrantsim.ai/internal/sim/warrants"
	"warrantsim.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		boardID    = flag.String("board", "board_1", "board id")
		seed       = flag.Int64("seed", 1337, "board seed (used only when starting fresh)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (tick/audit + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	boardDir := filepath.Join(*dataDir, "boards", *boardID)
	_ = os.MkdirAll(boardDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(boardDir)
	}

	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", tp)
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}
	cfg, rules := tuning.EngineParams(tune, *boardID, *seed)

	// Index backend (does not affect engine determinism).
	idx, err := openRuntimeIndex(boardDir, *boardID, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	// Host collaborators: the world the warrants point into.
	subjects := warrants.NewRegistry()
	factions := warrants.NewFactionDirectory()
	stock := warrants.NewStock()
	hw := host.New(logger, subjects, stock)

	deps := warrants.Deps{
		Subjects:  subjects,
		Factions:  factions,
		Stock:     stock,
		Factory:   gen.New(subjects),
		Quests:    hw,
		Incidents: hw,
		Wealth:    hw,
		Notifier:  hw,
	}

	mgr, err := warrants.New(cfg, rules, deps)
	if err != nil {
		logger.Fatalf("manager: %v", err)
	}

	if snapshotToLoad != "" {
		snap, err := snapshot.ReadBoard(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.BoardID != "" && snap.Header.BoardID != *boardID {
			logger.Fatalf("snapshot board id mismatch: flag=%s snap=%s", *boardID, snap.Header.BoardID)
		}
		mgr.ImportSnapshot(snap)
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), mgr.CurrentTick())
	} else {
		host.Seed(subjects, factions, stock)
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(boardDir)
	auditLog := persistlog.NewAuditLogger(boardDir)
	defer tickLog.Close()
	defer auditLog.Close()
	mgr.SetTickLogger(multiTickLogger{a: tickLog, b: idx.tick()})
	mgr.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx.audit()})

	// Snapshot writer.
	snapCh := make(chan snapshot.BoardV1, 2)
	mgr.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(boardDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteBoard(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	mgr.Start()
	go func() {
		if err := mgr.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("board stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		tick := mgr.CurrentTick()
		fmt.Fprintf(rw, "# HELP warrantsim_board_tick Current board tick.\n")
		fmt.Fprintf(rw, "# TYPE warrantsim_board_tick gauge\n")
		fmt.Fprintf(rw, "warrantsim_board_tick{board=%q} %d\n", *boardID, tick)

		fmt.Fprintf(rw, "# HELP warrantsim_board_silver Player silver on hand.\n")
		fmt.Fprintf(rw, "# TYPE warrantsim_board_silver gauge\n")
		fmt.Fprintf(rw, "warrantsim_board_silver{board=%q} %d\n", *boardID, stock.Total())
	})

	enableAdminHTTP := envBool("WS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("WS_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect engine determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				BoardID string `json:"board_id"`
				Tick    int64  `json:"tick"`
				Silver  int    `json:"silver"`
			}{
				BoardID: *boardID,
				Tick:    mgr.CurrentTick(),
				Silver:  stock.Total(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (WS_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (WS_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(mgr, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(boardDir string) string {
	dir := filepath.Join(boardDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick int64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseInt(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

type multiTickLogger struct {
	a warrants.TickLogger
	b warrants.TickLogger
}

func (m multiTickLogger) WriteTick(entry warrants.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a warrants.AuditLogger
	b warrants.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry warrants.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

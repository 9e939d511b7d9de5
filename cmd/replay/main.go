package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"warrantsim.ai/internal/persistence/snapshot"
	"warrantsim.ai/internal/sim/gen"
	"warrantsim.ai/internal/sim/host"
	"warrantsim.ai/internal/sim/tuning"
	"warrantsim.ai/internal/sim/warrants"
)

// replay rebuilds a board from a snapshot (or from genesis) and re-applies
// the recorded tick log, verifying the state digest at every tick. A digest
// mismatch means the engine diverged from the recorded run.
func main() {
	var (
		boardID    = flag.String("board", "board_1", "board id")
		seed       = flag.Int64("seed", 1337, "board seed (genesis replay only)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to resume from (optional; empty = genesis)")
		ticksDir   = flag.String("ticks", "", "ticks dir containing ticks-*.jsonl.zst (default: <data>/boards/<board>/ticks)")
		fromTick   = flag.Int64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Int64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	id, sd := *boardID, *seed
	var snap snapshot.BoardV1
	haveSnap := strings.TrimSpace(*snapPath) != ""
	if haveSnap {
		snap, err = snapshot.ReadBoard(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		if snap.Header.BoardID != "" {
			id = snap.Header.BoardID
		}
		sd = snap.Seed
	}

	cfg, rules := tuning.EngineParams(tune, id, sd)
	if haveSnap && snap.DayTicks > 0 && snap.DayTicks != cfg.DayTicks {
		fmt.Fprintf(os.Stderr, "day_ticks mismatch: tuning=%d snapshot=%d\n", cfg.DayTicks, snap.DayTicks)
		os.Exit(1)
	}

	subjects := warrants.NewRegistry()
	factions := warrants.NewFactionDirectory()
	stock := warrants.NewStock()
	hw := host.New(log.New(io.Discard, "", 0), subjects, stock)

	mgr, err := warrants.New(cfg, rules, warrants.Deps{
		Subjects:  subjects,
		Factions:  factions,
		Stock:     stock,
		Factory:   gen.New(subjects),
		Quests:    hw,
		Incidents: hw,
		Wealth:    hw,
		Notifier:  hw,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "manager:", err)
		os.Exit(1)
	}

	if haveSnap {
		mgr.ImportSnapshot(snap)
		fmt.Printf("snapshot v%d board=%s tick=%d seed=%d available=%d given_out=%d taken=%d accepted=%d pending=%d\n",
			snap.Header.Version, snap.Header.BoardID, snap.Header.Tick, snap.Seed,
			len(snap.Available), len(snap.GivenOut), len(snap.Taken), len(snap.Accepted), len(snap.Pending))
	} else {
		host.Seed(subjects, factions, stock)
		mgr.Start()
	}

	dir := strings.TrimSpace(*ticksDir)
	if dir == "" {
		dir = filepath.Join(*dataDir, "boards", id, "ticks")
	}
	files, err := listTickFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", dir)
		os.Exit(1)
	}

	startTick := mgr.CurrentTick()
	verifyFrom := *fromTick
	if verifyFrom == 0 {
		verifyFrom = startTick
	}

	var checked int64
	for _, path := range files {
		if err := replayFile(mgr, path, startTick, verifyFrom, *toTick, &checked); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if *toTick != 0 && mgr.CurrentTick() > *toTick {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d)\n", checked, startTick)
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func replayFile(mgr *warrants.Manager, path string, startTick, verifyFrom, toTick int64, checked *int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var entry warrants.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if entry.Tick <= startTick {
			continue
		}
		if toTick != 0 && entry.Tick > toTick {
			return nil
		}
		if entry.Tick != mgr.CurrentTick()+1 {
			return fmt.Errorf("tick gap: want=%d got=%d (file=%s)", mgr.CurrentTick()+1, entry.Tick, filepath.Base(path))
		}

		tick, gotDigest := mgr.StepOnce(entry.Ops)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
		}
		if tick >= verifyFrom {
			*checked++
			if gotDigest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
			}
		}
	}
	return sc.Err()
}

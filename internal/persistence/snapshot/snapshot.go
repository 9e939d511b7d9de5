package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	BoardID string `json:"board_id"`
	Tick    int64  `json:"tick"`
}

// BoardV1 is the complete persisted state of one warrant board: the four
// queues, pending decisions, the subjects and factions the warrants refer
// to, and the counters needed to resume id allocation.
type BoardV1 struct {
	Header Header `json:"header"`

	Seed     int64 `json:"seed"`
	TickRate int   `json:"tick_rate_hz"`
	DayTicks int   `json:"day_ticks"`

	Available []WarrantV1 `json:"available"`
	GivenOut  []WarrantV1 `json:"given_out"`
	Taken     []WarrantV1 `json:"taken"`
	Accepted  []WarrantV1 `json:"accepted"`

	Pending []PendingV1 `json:"pending,omitempty"`

	Subjects []SubjectV1 `json:"subjects"`
	Factions []FactionV1 `json:"factions"`
	Goodwill []GoodwillV1 `json:"goodwill,omitempty"`

	SilverStacks []int `json:"silver_stacks,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextWarrant uint64 `json:"next_warrant"`
	NextSubject uint64 `json:"next_subject"`
	Initialized bool   `json:"initialized"`
}

type WarrantV1 struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	TargetID    string `json:"target_id"`
	IssuerID    string `json:"issuer_id"`
	AccepteerID string `json:"accepteer_id,omitempty"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`

	RewardLiving int `json:"reward_living,omitempty"`
	RewardDead   int `json:"reward_dead,omitempty"`
	Reward       int `json:"reward,omitempty"`

	CreatedTick  int64 `json:"created_tick"`
	AcceptedTick int64 `json:"accepted_tick"`
	DeadlineTick int64 `json:"deadline_tick"`

	QuestHandle string `json:"quest_handle,omitempty"`
}

type PendingV1 struct {
	WarrantID   string `json:"warrant_id"`
	AccepteerID string `json:"accepteer_id"`
	DeadTier    bool   `json:"dead_tier"`
	Amount      int    `json:"amount"`
	DecidedTick int64  `json:"decided_tick"`
}

// SubjectV1 captures a referenced subject. SavedElsewhere marks subjects
// the host world persists itself (spawned or held); on resume those are
// re-linked by id rather than recreated from the snapshot copy.
type SubjectV1 struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Label       string `json:"label,omitempty"`
	Species     string `json:"species,omitempty"`
	FactionID   string `json:"faction_id,omitempty"`
	MarketValue int    `json:"market_value"`

	Dead      bool `json:"dead,omitempty"`
	Destroyed bool `json:"destroyed,omitempty"`
	Spawned   bool `json:"spawned,omitempty"`
	Held      bool `json:"held,omitempty"`
	Tamed     bool `json:"tamed,omitempty"`

	CorpseID string `json:"corpse_id,omitempty"`
	InnerID  string `json:"inner_id,omitempty"`

	SavedElsewhere bool `json:"saved_elsewhere,omitempty"`
}

type FactionV1 struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Humanlike   bool   `json:"humanlike,omitempty"`
	Defeated    bool   `json:"defeated,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	Player      bool   `json:"player,omitempty"`
	Settlements int    `json:"settlements,omitempty"`
}

type GoodwillV1 struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Value int    `json:"value"`
}

func WriteBoard(path string, snap BoardV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadBoard(path string) (BoardV1, error) {
	var snap BoardV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is advisory; gob carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

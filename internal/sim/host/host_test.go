package host

import (
	"io"
	"log"
	"testing"

	"warrantsim.ai/internal/sim/warrants"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestPlayerWealthCountsSilverAndOwnedSubjects(t *testing.T) {
	subjects := warrants.NewRegistry()
	factions := warrants.NewFactionDirectory()
	stock := warrants.NewStock()
	Seed(subjects, factions, stock)

	h := New(quiet(), subjects, stock)
	want := 800 + 450 + 1600 + 1250 + 1900
	if got := h.PlayerWealth(); got != want {
		t.Fatalf("wealth = %d, want %d", got, want)
	}
}

func TestQuestHandlesAreSequential(t *testing.T) {
	h := New(quiet(), warrants.NewRegistry(), warrants.NewStock())

	h1, err := h.Launch(warrants.QuestRequest{WarrantID: "W000001"})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	h2, _ := h.Launch(warrants.QuestRequest{WarrantID: "W000002"})
	if h1 != "Q00001" || h2 != "Q00002" {
		t.Fatalf("handles = %s, %s", h1, h2)
	}

	h.End(h1, warrants.QuestSuccess)
	h.End(h1, warrants.QuestSuccess) // unknown handle is a no-op
	if len(h.quests) != 1 {
		t.Fatalf("quests = %d, want 1", len(h.quests))
	}
}

func TestSeedRegistersFactions(t *testing.T) {
	subjects := warrants.NewRegistry()
	factions := warrants.NewFactionDirectory()
	stock := warrants.NewStock()
	Seed(subjects, factions, stock)

	p := factions.Get("player")
	if p == nil || !p.Player {
		t.Fatalf("player faction = %+v", p)
	}
	if factions.Get("outlanders") == nil || factions.Get("tribe") == nil {
		t.Fatal("issuer factions missing")
	}
	if stock.Total() != 1250 {
		t.Fatalf("silver = %d", stock.Total())
	}
}

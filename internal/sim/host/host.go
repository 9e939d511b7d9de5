// Package host provides the stand-in for the game the warrant board plugs
// into: quest launching, incident requests, player wealth, and notices. The
// server and the replay verifier share it so both drive the engine with
// identical host behavior.
package host

import (
	"fmt"
	"log"

	"warrantsim.ai/internal/sim/warrants"
)

// World records launched quests, logs incident requests, and derives player
// wealth from silver plus owned subjects.
type World struct {
	log      *log.Logger
	subjects *warrants.Registry
	stock    *warrants.Stock

	nextQuest int
	quests    map[string]warrants.QuestRequest
}

func New(logger *log.Logger, subjects *warrants.Registry, stock *warrants.Stock) *World {
	return &World{
		log:      logger,
		subjects: subjects,
		stock:    stock,
		quests:   map[string]warrants.QuestRequest{},
	}
}

func (h *World) Launch(req warrants.QuestRequest) (string, error) {
	h.nextQuest++
	handle := fmt.Sprintf("Q%05d", h.nextQuest)
	h.quests[handle] = req
	h.log.Printf("quest %s launched: warrant=%s target=%s (%s)", handle, req.WarrantID, req.TargetID, req.TargetLabel)
	return handle, nil
}

func (h *World) End(handle string, outcome warrants.QuestOutcome) {
	req, ok := h.quests[handle]
	if !ok {
		return
	}
	delete(h.quests, handle)
	h.log.Printf("quest %s ended: warrant=%s outcome=%s", handle, req.WarrantID, outcome)
}

func (h *World) TriggerRaid(req warrants.RaidRequest) {
	h.log.Printf("incident: %s faction=%s warrant=%s scale=%.2f", req.Kind, req.FactionID, req.WarrantID, req.Scale)
}

func (h *World) PlayerWealth() int {
	wealth := h.stock.Total()
	for _, s := range h.subjects.OwnedBy("player") {
		wealth += s.MarketValue
	}
	return wealth
}

func (h *World) Notify(n warrants.Notice) {
	h.log.Printf("notice [%s] %s", n.Kind, n.Text)
}

// Seed builds the starting world for a fresh board: the player colony, a
// handful of outlander factions, and some colonists to put warrants on.
func Seed(subjects *warrants.Registry, factions *warrants.FactionDirectory, stock *warrants.Stock) {
	factions.Add(&warrants.Faction{ID: "player", Name: "New Arrivals", Humanlike: true, Player: true, Settlements: 1})
	factions.Add(&warrants.Faction{ID: "outlanders", Name: "Harmony Union", Humanlike: true, Settlements: 3})
	factions.Add(&warrants.Faction{ID: "confederation", Name: "Ashfall Confederation", Humanlike: true, Settlements: 2})
	factions.Add(&warrants.Faction{ID: "tribe", Name: "Cloudpine Tribe", Humanlike: true, Settlements: 4})

	colonists := []struct {
		id, label string
		value     int
	}{
		{"col_ayla", "Ayla", 1600},
		{"col_brant", "Brant", 1250},
		{"col_cato", "Cato", 1900},
	}
	for _, c := range colonists {
		subjects.Add(&warrants.Subject{
			ID:          c.id,
			Kind:        warrants.SubjectPerson,
			Label:       c.label,
			FactionID:   "player",
			MarketValue: c.value,
			Spawned:     true,
		})
	}

	stock.Add(800)
	stock.Add(450)
}

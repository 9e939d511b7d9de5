package warrants

import "sort"

// Goodwill at or below this makes two factions hostile to each other.
const HostileGoodwill = -75

type Faction struct {
	ID   string
	Name string

	Humanlike   bool
	Defeated    bool
	Hidden      bool
	Player      bool
	Settlements int
}

// FactionDirectory tracks factions and their pairwise goodwill. The host
// world owns faction membership; the engine adjusts goodwill through it and
// selects third parties with the eligibility filter below.
type FactionDirectory struct {
	factions map[string]*Faction
	goodwill map[string]int // key: "a|b" with a < b
	playerID string
}

func NewFactionDirectory() *FactionDirectory {
	return &FactionDirectory{
		factions: map[string]*Faction{},
		goodwill: map[string]int{},
	}
}

func (d *FactionDirectory) Add(f *Faction) {
	if f == nil || f.ID == "" {
		return
	}
	d.factions[f.ID] = f
	if f.Player {
		d.playerID = f.ID
	}
}

func (d *FactionDirectory) Get(id string) *Faction { return d.factions[id] }

func (d *FactionDirectory) PlayerID() string { return d.playerID }

func goodwillKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (d *FactionDirectory) Goodwill(a, b string) int {
	if a == b {
		return 100
	}
	return d.goodwill[goodwillKey(a, b)]
}

// AffectGoodwill shifts the relation between two factions, clamped to
// [-100, 100]. Unknown factions are ignored.
func (d *FactionDirectory) AffectGoodwill(a, b string, delta int) {
	if a == b || d.factions[a] == nil || d.factions[b] == nil {
		return
	}
	v := d.goodwill[goodwillKey(a, b)] + delta
	if v > 100 {
		v = 100
	}
	if v < -100 {
		v = -100
	}
	d.goodwill[goodwillKey(a, b)] = v
}

func (d *FactionDirectory) SetGoodwill(a, b string, v int) {
	if a == b {
		return
	}
	d.goodwill[goodwillKey(a, b)] = v
}

func (d *FactionDirectory) HostileTo(a, b string) bool {
	if a == b {
		return false
	}
	return d.Goodwill(a, b) <= HostileGoodwill
}

func (d *FactionDirectory) ids() []string {
	out := make([]string, 0, len(d.factions))
	for id := range d.factions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// eligible returns the factions that may act as a warrant third party:
// humanlike, not defeated, not hidden, not the player, controlling at least
// one settlement, not hostile to the player, and not the excluded issuer.
// Sorted by id so a roll picks deterministically.
func (d *FactionDirectory) eligible(excludeID string) []*Faction {
	out := make([]*Faction, 0, len(d.factions))
	for _, f := range d.factions {
		if !f.Humanlike || f.Defeated || f.Hidden || f.Player || f.Settlements == 0 {
			continue
		}
		if f.ID == excludeID {
			continue
		}
		if d.playerID != "" && d.HostileTo(f.ID, d.playerID) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PickEligible selects one eligible faction with a uniform roll, or nil if
// the filtered set is empty.
func (d *FactionDirectory) PickEligible(excludeID string, roll uint64) *Faction {
	set := d.eligible(excludeID)
	if len(set) == 0 {
		return nil
	}
	return set[int(roll%uint64(len(set)))]
}

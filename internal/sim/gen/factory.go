// Package gen procedurally creates the off-map people, animals and
// artifacts that warrants are posted against. Everything derives from the
// roll it is handed, so a fixed seed yields the same targets.
package gen

import (
	"fmt"

	"warrantsim.ai/internal/sim/warrants"
)

var firstNames = []string{
	"Arlen", "Boro", "Cassia", "Dren", "Edda", "Fenn", "Gorlan", "Hale",
	"Iska", "Joss", "Kett", "Lyra", "Marn", "Nessa", "Orrin", "Petra",
	"Quill", "Rask", "Sorrel", "Tove", "Ulric", "Vesna", "Wren", "Yara",
}

var lastNames = []string{
	"Ashfall", "Blackbriar", "Coldwater", "Dustwalker", "Emberlane",
	"Foxglove", "Grimsbane", "Hollowell", "Ironwood", "Kestrelmoor",
	"Longshadow", "Mirefield", "Nightvale", "Oakmantle", "Palewick",
	"Ravencrest", "Saltmarsh", "Thornhill", "Veldt", "Winterbourne",
}

var reasons = []string{
	"murder", "arson", "banditry", "kidnapping", "smuggling",
	"desertion", "sabotage", "cattle rustling", "poisoning a well",
	"breach of contract", "grave robbing", "espionage",
}

var species = []struct {
	Name  string
	Value int
}{
	{"husky", 300},
	{"boomalope", 500},
	{"muffalo", 600},
	{"warg", 450},
	{"thrumbo calf", 2500},
	{"panther", 550},
	{"elk", 350},
	{"monkey", 120},
}

var artifacts = []struct {
	Name  string
	Value int
}{
	{"psychic lance", 1000},
	{"vanometric power cell", 2200},
	{"healer mech serum", 1800},
	{"archotech eye", 2600},
	{"orbital bombardment targeter", 2000},
	{"resurrector mech serum", 3200},
	{"psychic soothe pulser", 800},
}

// Factory implements warrants.SubjectFactory. Created subjects are
// registered immediately so the engine can resolve them by id.
type Factory struct {
	reg  *warrants.Registry
	next uint64
}

func New(reg *warrants.Registry) *Factory {
	return &Factory{reg: reg}
}

func (f *Factory) newID(prefix string) string {
	f.next++
	return fmt.Sprintf("%s%06d", prefix, f.next)
}

// Counter reports how many subjects have been issued. It is persisted in
// board snapshots; a factory rebuilt after a resume must be reseeded with
// SetCounter or it would reissue ids held by restored subjects.
func (f *Factory) Counter() uint64 { return f.next }

func (f *Factory) SetCounter(n uint64) { f.next = n }

func (f *Factory) RandomPerson(roll uint64) *warrants.Subject {
	first := firstNames[int(roll%uint64(len(firstNames)))]
	last := lastNames[int((roll>>8)%uint64(len(lastNames)))]
	// Market value in [800, 2800): roughly an adult raider's worth.
	value := 800 + int((roll>>16)%2000)
	s := &warrants.Subject{
		ID:          f.newID("P"),
		Kind:        warrants.SubjectPerson,
		Label:       first + " " + last,
		MarketValue: value,
	}
	f.reg.Add(s)
	return s
}

func (f *Factory) RandomAnimal(roll uint64) *warrants.Subject {
	sp := species[int(roll%uint64(len(species)))]
	s := &warrants.Subject{
		ID:          f.newID("A"),
		Kind:        warrants.SubjectAnimal,
		Label:       sp.Name,
		Species:     sp.Name,
		MarketValue: sp.Value,
		Tamed:       true,
	}
	f.reg.Add(s)
	return s
}

func (f *Factory) RandomArtifact(roll uint64) *warrants.Subject {
	art := artifacts[int(roll%uint64(len(artifacts)))]
	s := &warrants.Subject{
		ID:          f.newID("T"),
		Kind:        warrants.SubjectArtifact,
		Label:       art.Name,
		MarketValue: art.Value,
	}
	f.reg.Add(s)
	return s
}

func (f *Factory) ReasonFor(roll uint64) string {
	return reasons[int(roll%uint64(len(reasons)))]
}

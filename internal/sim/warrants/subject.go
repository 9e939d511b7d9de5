package warrants

import "sort"

type SubjectKind string

const (
	SubjectPerson   SubjectKind = "PERSON"
	SubjectAnimal   SubjectKind = "ANIMAL"
	SubjectArtifact SubjectKind = "ARTIFACT"
	SubjectCorpse   SubjectKind = "CORPSE"
)

// Subject is the thing a warrant targets: a living being, an item, or the
// corpse a being left behind. Subjects are owned by the host world; the
// engine only reads them, except for the corpse swap in IsActive and the
// outcome applied when a pending decision is paid out.
type Subject struct {
	ID          string
	Kind        SubjectKind
	Label       string
	Species     string // animals only
	FactionID   string // "" when unowned
	MarketValue int

	Dead      bool
	Destroyed bool
	Spawned   bool // present somewhere in the host world
	Held      bool // carried in an inventory, container or caravan
	Tamed     bool // animals only

	CorpseID string // beings: set once a corpse exists
	InnerID  string // corpses: the being this was
}

func (s *Subject) IsValid() bool { return s != nil && !s.Destroyed }

// Registry indexes all subjects known to the engine by id.
type Registry struct {
	subjects map[string]*Subject
}

func NewRegistry() *Registry {
	return &Registry{subjects: map[string]*Subject{}}
}

func (r *Registry) Add(s *Subject) {
	if s == nil || s.ID == "" {
		return
	}
	r.subjects[s.ID] = s
}

func (r *Registry) Get(id string) *Subject { return r.subjects[id] }

func (r *Registry) Remove(id string) { delete(r.subjects, id) }

// OwnedBy returns the living, non-destroyed subjects of one faction,
// sorted by id so callers can pick deterministically.
func (r *Registry) OwnedBy(factionID string) []*Subject {
	out := make([]*Subject, 0, 8)
	for _, s := range r.subjects {
		if s.FactionID != factionID || s.Dead || s.Destroyed || s.Kind == SubjectCorpse || s.Kind == SubjectArtifact {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MarkDead flips a being to dead and materializes its corpse in the
// registry. Idempotent; returns the corpse.
func (r *Registry) MarkDead(s *Subject) *Subject {
	if s == nil || s.Kind == SubjectArtifact || s.Kind == SubjectCorpse {
		return nil
	}
	s.Dead = true
	if s.CorpseID != "" {
		return r.Get(s.CorpseID)
	}
	corpse := &Subject{
		ID:          s.ID + "_corpse",
		Kind:        SubjectCorpse,
		Label:       s.Label,
		Species:     s.Species,
		MarketValue: s.MarketValue,
		Dead:        true,
		Spawned:     s.Spawned,
		Held:        s.Held,
		InnerID:     s.ID,
	}
	s.CorpseID = corpse.ID
	r.Add(corpse)
	return corpse
}

// inner resolves a corpse back to the being it was. For anything else it
// returns the subject itself.
func (r *Registry) inner(s *Subject) *Subject {
	if s == nil {
		return nil
	}
	if s.Kind == SubjectCorpse && s.InnerID != "" {
		if in := r.Get(s.InnerID); in != nil {
			return in
		}
	}
	return s
}

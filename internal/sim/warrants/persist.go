package warrants

import (
	"sort"

	"warrantsim.ai/internal/persistence/snapshot"
)

// subjectCounter is implemented by factories whose subject-id counter must
// survive a snapshot cycle. A reset counter would reissue ids and overwrite
// restored subjects that live warrants still target.
type subjectCounter interface {
	Counter() uint64
	SetCounter(uint64)
}

// ExportSnapshot captures the full board state. Subjects that are spawned
// or held are persisted by the host world's own save; they are flagged so
// the import prefers the host's live copy over the snapshot one.
func (m *Manager) ExportSnapshot() snapshot.BoardV1 {
	now := m.tick.Load()
	snap := snapshot.BoardV1{
		Header:   snapshot.Header{Version: 1, BoardID: m.cfg.ID, Tick: now},
		Seed:     m.cfg.Seed,
		TickRate: m.cfg.TickRateHz,
		DayTicks: m.cfg.DayTicks,
		Counters: snapshot.CountersV1{NextWarrant: m.nextWarrantNum, Initialized: m.initialized},
	}
	if fc, ok := m.deps.Factory.(subjectCounter); ok {
		snap.Counters.NextSubject = fc.Counter()
	}

	snap.Available = exportQueue(m.available)
	snap.GivenOut = exportQueue(m.givenOut)
	snap.Taken = exportQueue(m.taken)
	snap.Accepted = exportQueue(m.accepted)

	for _, id := range sortedKeys(m.pending) {
		d := m.pending[id]
		snap.Pending = append(snap.Pending, snapshot.PendingV1{
			WarrantID:   d.WarrantID,
			AccepteerID: d.AccepteerID,
			DeadTier:    d.DeadTier,
			Amount:      d.Amount,
			DecidedTick: d.DecidedTick,
		})
	}

	// Only subjects a warrant can still reach are worth saving: targets,
	// their corpses and the beings behind corpse references.
	seen := map[string]bool{}
	var addSubject func(id string)
	addSubject = func(id string) {
		if id == "" || seen[id] {
			return
		}
		s := m.deps.Subjects.Get(id)
		if s == nil {
			return
		}
		seen[id] = true
		snap.Subjects = append(snap.Subjects, snapshot.SubjectV1{
			ID:             s.ID,
			Kind:           string(s.Kind),
			Label:          s.Label,
			Species:        s.Species,
			FactionID:      s.FactionID,
			MarketValue:    s.MarketValue,
			Dead:           s.Dead,
			Destroyed:      s.Destroyed,
			Spawned:        s.Spawned,
			Held:           s.Held,
			Tamed:          s.Tamed,
			CorpseID:       s.CorpseID,
			InnerID:        s.InnerID,
			SavedElsewhere: s.Spawned || s.Held,
		})
		addSubject(s.CorpseID)
		addSubject(s.InnerID)
	}
	for _, q := range [][]*Warrant{m.available, m.givenOut, m.taken, m.accepted} {
		for _, w := range q {
			addSubject(w.TargetID)
		}
	}
	sort.Slice(snap.Subjects, func(i, j int) bool { return snap.Subjects[i].ID < snap.Subjects[j].ID })

	for _, id := range m.deps.Factions.ids() {
		f := m.deps.Factions.Get(id)
		snap.Factions = append(snap.Factions, snapshot.FactionV1{
			ID:          f.ID,
			Name:        f.Name,
			Humanlike:   f.Humanlike,
			Defeated:    f.Defeated,
			Hidden:      f.Hidden,
			Player:      f.Player,
			Settlements: f.Settlements,
		})
	}
	snap.Goodwill = m.deps.Factions.exportGoodwill()

	snap.SilverStacks = append([]int(nil), m.deps.Stock.stacks...)
	return snap
}

// ImportSnapshot restores a board into a freshly constructed Manager. Live
// collaborators win over snapshot copies: a subject the host already
// re-registered (flagged SavedElsewhere at save time) is kept as-is.
func (m *Manager) ImportSnapshot(snap snapshot.BoardV1) {
	m.tick.Store(snap.Header.Tick)
	m.nextWarrantNum = snap.Counters.NextWarrant
	m.initialized = snap.Counters.Initialized
	if fc, ok := m.deps.Factory.(subjectCounter); ok && snap.Counters.NextSubject > 0 {
		fc.SetCounter(snap.Counters.NextSubject)
	}

	for _, sv := range snap.Subjects {
		if sv.SavedElsewhere && m.deps.Subjects.Get(sv.ID) != nil {
			continue
		}
		m.deps.Subjects.Add(&Subject{
			ID:          sv.ID,
			Kind:        SubjectKind(sv.Kind),
			Label:       sv.Label,
			Species:     sv.Species,
			FactionID:   sv.FactionID,
			MarketValue: sv.MarketValue,
			Dead:        sv.Dead,
			Destroyed:   sv.Destroyed,
			Spawned:     sv.Spawned,
			Held:        sv.Held,
			Tamed:       sv.Tamed,
			CorpseID:    sv.CorpseID,
			InnerID:     sv.InnerID,
		})
	}
	for _, fv := range snap.Factions {
		if m.deps.Factions.Get(fv.ID) != nil {
			continue
		}
		m.deps.Factions.Add(&Faction{
			ID:          fv.ID,
			Name:        fv.Name,
			Humanlike:   fv.Humanlike,
			Defeated:    fv.Defeated,
			Hidden:      fv.Hidden,
			Player:      fv.Player,
			Settlements: fv.Settlements,
		})
	}
	for _, g := range snap.Goodwill {
		m.deps.Factions.SetGoodwill(g.A, g.B, g.Value)
	}

	m.available = importQueue(snap.Available)
	m.givenOut = importQueue(snap.GivenOut)
	m.taken = importQueue(snap.Taken)
	m.accepted = importQueue(snap.Accepted)

	m.pending = map[string]*PendingDecision{}
	for _, pv := range snap.Pending {
		m.pending[pv.WarrantID] = &PendingDecision{
			WarrantID:   pv.WarrantID,
			AccepteerID: pv.AccepteerID,
			DeadTier:    pv.DeadTier,
			Amount:      pv.Amount,
			DecidedTick: pv.DecidedTick,
		}
	}

	if len(snap.SilverStacks) > 0 {
		m.deps.Stock.stacks = append([]int(nil), snap.SilverStacks...)
	}
	m.dirty = true
}

func exportQueue(q []*Warrant) []snapshot.WarrantV1 {
	out := make([]snapshot.WarrantV1, 0, len(q))
	for _, w := range q {
		out = append(out, snapshot.WarrantV1{
			ID:           w.ID,
			Kind:         string(w.Kind),
			TargetID:     w.TargetID,
			IssuerID:     w.IssuerID,
			AccepteerID:  w.AccepteerID,
			Status:       string(w.Status),
			Reason:       w.Reason,
			RewardLiving: w.RewardLiving,
			RewardDead:   w.RewardDead,
			Reward:       w.Reward,
			CreatedTick:  w.CreatedTick,
			AcceptedTick: w.AcceptedTick,
			DeadlineTick: w.DeadlineTick,
			QuestHandle:  w.QuestHandle,
		})
	}
	return out
}

func importQueue(q []snapshot.WarrantV1) []*Warrant {
	out := make([]*Warrant, 0, len(q))
	for _, wv := range q {
		out = append(out, &Warrant{
			ID:           wv.ID,
			Kind:         Kind(wv.Kind),
			TargetID:     wv.TargetID,
			IssuerID:     wv.IssuerID,
			AccepteerID:  wv.AccepteerID,
			Status:       Status(wv.Status),
			Reason:       wv.Reason,
			RewardLiving: wv.RewardLiving,
			RewardDead:   wv.RewardDead,
			Reward:       wv.Reward,
			CreatedTick:  wv.CreatedTick,
			AcceptedTick: wv.AcceptedTick,
			DeadlineTick: wv.DeadlineTick,
			QuestHandle:  wv.QuestHandle,
		})
	}
	return out
}

func (d *FactionDirectory) exportGoodwill() []snapshot.GoodwillV1 {
	keys := make([]string, 0, len(d.goodwill))
	for k := range d.goodwill {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]snapshot.GoodwillV1, 0, len(keys))
	for _, k := range keys {
		i := 0
		for i < len(k) && k[i] != '|' {
			i++
		}
		out = append(out, snapshot.GoodwillV1{A: k[:i], B: k[i+1:], Value: d.goodwill[k]})
	}
	return out
}

func sortedKeys(m map[string]*PendingDecision) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

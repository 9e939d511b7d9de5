package warrants

import (
	"fmt"
	"testing"
)

type fakeQuests struct {
	n        int
	launched []QuestRequest
	ended    map[string]QuestOutcome
}

func (f *fakeQuests) Launch(req QuestRequest) (string, error) {
	f.n++
	h := fmt.Sprintf("Q%d", f.n)
	f.launched = append(f.launched, req)
	return h, nil
}

func (f *fakeQuests) End(handle string, outcome QuestOutcome) {
	if f.ended == nil {
		f.ended = map[string]QuestOutcome{}
	}
	f.ended[handle] = outcome
}

type fakeIncidents struct {
	raids []RaidRequest
}

func (f *fakeIncidents) TriggerRaid(req RaidRequest) { f.raids = append(f.raids, req) }

type fakeWealth struct{ wealth int }

func (f *fakeWealth) PlayerWealth() int { return f.wealth }

type fakeFactory struct {
	reg *Registry
	n   int
}

func (f *fakeFactory) make(kind SubjectKind, prefix string, value int) *Subject {
	f.n++
	s := &Subject{
		ID:          fmt.Sprintf("%s%d", prefix, f.n),
		Kind:        kind,
		Label:       fmt.Sprintf("%s %d", prefix, f.n),
		MarketValue: value,
	}
	if kind == SubjectAnimal {
		s.Species = "muffalo"
		s.Tamed = true
	}
	f.reg.Add(s)
	return s
}

func (f *fakeFactory) RandomPerson(roll uint64) *Subject   { return f.make(SubjectPerson, "p", 1000) }
func (f *fakeFactory) RandomAnimal(roll uint64) *Subject   { return f.make(SubjectAnimal, "a", 500) }
func (f *fakeFactory) RandomArtifact(roll uint64) *Subject { return f.make(SubjectArtifact, "t", 1500) }
func (f *fakeFactory) ReasonFor(roll uint64) string        { return "banditry" }
func (f *fakeFactory) Counter() uint64                     { return uint64(f.n) }
func (f *fakeFactory) SetCounter(n uint64)                 { f.n = int(n) }

type testEnv struct {
	subjects  *Registry
	factions  *FactionDirectory
	stock     *Stock
	quests    *fakeQuests
	incidents *fakeIncidents
	wealth    *fakeWealth
}

func newTestManager(t *testing.T) (*Manager, *testEnv) {
	t.Helper()
	env := &testEnv{
		subjects:  NewRegistry(),
		factions:  NewFactionDirectory(),
		stock:     NewStock(1000),
		quests:    &fakeQuests{},
		incidents: &fakeIncidents{},
		wealth:    &fakeWealth{wealth: 100000},
	}
	env.factions.Add(&Faction{ID: "player", Name: "Colony", Humanlike: true, Player: true, Settlements: 1})
	env.factions.Add(&Faction{ID: "fac_a", Name: "Union", Humanlike: true, Settlements: 2})
	env.factions.Add(&Faction{ID: "fac_b", Name: "Tribe", Humanlike: true, Settlements: 3})

	rules := DefaultRules()
	m, err := New(Config{ID: "test", Seed: 42, TickRateHz: 5, DayTicks: 1000}, rules, Deps{
		Subjects:  env.subjects,
		Factions:  env.factions,
		Stock:     env.stock,
		Factory:   &fakeFactory{reg: env.subjects},
		Quests:    env.quests,
		Incidents: env.incidents,
		Wealth:    env.wealth,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, env
}

func addTarget(env *testEnv, id string, value int) *Subject {
	s := &Subject{ID: id, Kind: SubjectPerson, Label: id, MarketValue: value, Spawned: true}
	env.subjects.Add(s)
	return s
}

func addAvailable(m *Manager, targetID string, living, dead int) *Warrant {
	w := &Warrant{
		ID:           m.newWarrantID(),
		Kind:         KindPerson,
		TargetID:     targetID,
		IssuerID:     "fac_a",
		Status:       StatusAvailable,
		RewardLiving: living,
		RewardDead:   dead,
		CreatedTick:  m.tick.Load(),
		AcceptedTick: -1,
		DeadlineTick: -1,
	}
	m.available = append(m.available, w)
	return w
}

func countAcross(m *Manager, id string) int {
	n := 0
	for _, q := range [][]*Warrant{m.available, m.givenOut, m.taken, m.accepted} {
		for _, w := range q {
			if w.ID == id {
				n++
			}
		}
	}
	return n
}

func TestWarrantInExactlyOneQueue(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 900, 0)

	if got := countAcross(m, w.ID); got != 1 {
		t.Fatalf("expected warrant in 1 queue, got %d", got)
	}
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got := countAcross(m, w.ID); got != 1 {
		t.Fatalf("after accept: expected warrant in 1 queue, got %d", got)
	}
	if w.Status != StatusAccepted {
		t.Fatalf("status = %s, want ACCEPTED", w.Status)
	}
}

func TestChancesClampToOne(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "cheap", 100)
	w := addAvailable(m, "cheap", 900, 0) // ratio 9.0

	if got := w.AcceptChance(env.subjects); got != 1 {
		t.Fatalf("AcceptChance = %v, want 1", got)
	}
	if got := w.SuccessChance(env.subjects); got != 1 {
		t.Fatalf("SuccessChance = %v, want 1", got)
	}
	_ = m
}

func TestChancesReflectRewardEdits(t *testing.T) {
	_, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := &Warrant{Kind: KindPerson, TargetID: "tgt", RewardLiving: 500}

	if got := w.AcceptChance(env.subjects); got != 0.5 {
		t.Fatalf("AcceptChance = %v, want 0.5", got)
	}
	w.RewardLiving = 250
	if got := w.AcceptChance(env.subjects); got != 0.25 {
		t.Fatalf("after edit AcceptChance = %v, want 0.25", got)
	}
}

func TestAvailableExpiresWithoutSideEffects(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 900, 0)

	before := env.factions.Goodwill("fac_a", "player")
	m.tick.Store(int64(m.rules.ExpiryDays) * int64(m.cfg.DayTicks))
	m.expireAvailable(m.tick.Load())

	if len(m.available) != 0 {
		t.Fatalf("available queue not drained: %d", len(m.available))
	}
	if w.Status != StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", w.Status)
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != before {
		t.Fatalf("goodwill changed on available expiry: %d -> %d", before, got)
	}
}

func TestAcceptedExpiryFailsQuestAndCostsGoodwill(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 900, 0)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	m.tick.Store(int64(m.rules.ExpiryDays) * int64(m.cfg.DayTicks))
	m.expireAccepted(m.tick.Load())

	if len(m.accepted) != 0 {
		t.Fatalf("accepted queue not drained: %d", len(m.accepted))
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != -m.rules.FailedByPlayerGoodwill {
		t.Fatalf("goodwill = %d, want %d", got, -m.rules.FailedByPlayerGoodwill)
	}
	if env.quests.ended[w.QuestHandle] != QuestFail {
		t.Fatalf("quest not ended in failure: %v", env.quests.ended)
	}

	// Effects are spent: a later defensive purge fires nothing more.
	before := env.factions.Goodwill("fac_a", "player")
	m.conclude(w, StatusFailed, func() {
		env.factions.AffectGoodwill("fac_a", "player", -50)
	})
	if got := env.factions.Goodwill("fac_a", "player"); got != before {
		t.Fatalf("terminal side effects fired twice: %d -> %d", before, got)
	}
}

func TestCorpseMigrationKeepsWarrantAlive(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 900, 400)

	corpse := env.subjects.MarkDead(s)
	if corpse == nil {
		t.Fatal("no corpse created")
	}
	if !w.IsActive(env.subjects) {
		t.Fatal("warrant with a dead reward should survive target death")
	}
	if w.TargetID != corpse.ID {
		t.Fatalf("target not migrated to corpse: %s", w.TargetID)
	}
	_ = m
}

func TestDeadTargetWithNoDeadRewardIsPurged(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 900, 0)

	env.subjects.MarkDead(s)
	if w.IsActive(env.subjects) {
		t.Fatal("living-only warrant should be inactive once the target dies")
	}

	before := env.factions.Goodwill("fac_a", "player")
	m.purgeDangling(10)
	if countAcross(m, w.ID) != 0 {
		t.Fatal("inactive warrant not purged")
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != before {
		t.Fatalf("purge applied a penalty: %d -> %d", before, got)
	}
}

func TestDestroyedArtifactTargetIsPurged(t *testing.T) {
	m, env := newTestManager(t)
	art := &Subject{ID: "relic", Kind: SubjectArtifact, Label: "relic", MarketValue: 1500, Spawned: true}
	env.subjects.Add(art)
	w := &Warrant{
		ID: m.newWarrantID(), Kind: KindArtifact, TargetID: "relic", IssuerID: "fac_b",
		Status: StatusAvailable, Reward: 1200, CreatedTick: 0, AcceptedTick: -1, DeadlineTick: -1,
	}
	m.available = append(m.available, w)

	art.Destroyed = true
	m.purgeDangling(5)
	if countAcross(m, w.ID) != 0 {
		t.Fatal("warrant on destroyed artifact not purged")
	}
}

func TestDigestStableForEqualState(t *testing.T) {
	m1, env1 := newTestManager(t)
	m2, env2 := newTestManager(t)
	addTarget(env1, "tgt", 1000)
	addTarget(env2, "tgt", 1000)
	addAvailable(m1, "tgt", 900, 0)
	addAvailable(m2, "tgt", 900, 0)

	if m1.digest() != m2.digest() {
		t.Fatal("digests differ for identical state")
	}
}

func TestStartPopulatesBoardOnce(t *testing.T) {
	m, _ := newTestManager(t)
	m.Start()
	n := len(m.available)
	if n < m.rules.PopulateMin || n > m.rules.PopulateMax {
		t.Fatalf("populated %d warrants, want %d..%d", n, m.rules.PopulateMin, m.rules.PopulateMax)
	}
	m.Start()
	if len(m.available) != n {
		t.Fatalf("second Start repopulated: %d -> %d", n, len(m.available))
	}
}

func TestDigestCoversPendingDecisions(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := issueTaken(t, m, "tgt", "fac_a", 500, 50)
	m.pending[w.ID] = &PendingDecision{WarrantID: w.ID, AccepteerID: "fac_a", Amount: 500, DecidedTick: 1}

	base := m.digest()
	m.pending[w.ID].Amount = 900
	if m.digest() == base {
		t.Fatal("digest ignores pending amount")
	}
	m.pending[w.ID].Amount = 500
	if m.digest() != base {
		t.Fatal("digest not stable for equal pending state")
	}
	m.pending[w.ID].DeadTier = true
	if m.digest() == base {
		t.Fatal("digest ignores pending dead tier")
	}
}

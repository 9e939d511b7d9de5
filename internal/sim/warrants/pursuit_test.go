package warrants

import "testing"

// issueTaken puts a player-issued warrant directly into the taken queue
// with the given accepteer and deadline.
func issueTaken(t *testing.T, m *Manager, targetID, accepteer string, living int, deadline int64) *Warrant {
	t.Helper()
	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: targetID, RewardLiving: living})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	removeWarrant(&m.givenOut, w)
	w.Status = StatusTaken
	w.AccepteerID = accepteer
	w.AcceptedTick = m.tick.Load()
	w.DeadlineTick = deadline
	m.taken = append(m.taken, w)
	return w
}

func TestGivenOutIsTakenWithCertainAcceptance(t *testing.T) {
	m, env := newTestManager(t)
	// Reward at market value: AcceptChance 1. A one-tick reference window
	// makes the per-tick roll certain.
	m.rules.AcceptRefDays = 1
	m.cfg.DayTicks = 1
	addTarget(env, "tgt", 1000)
	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 1000})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.runGivenOut(1)
	if len(m.givenOut) != 0 || len(m.taken) != 1 {
		t.Fatalf("queues after take: given=%d taken=%d", len(m.givenOut), len(m.taken))
	}
	if w.Status != StatusTaken || w.AccepteerID == "" {
		t.Fatalf("warrant not taken: status=%s accepteer=%q", w.Status, w.AccepteerID)
	}
	if w.AccepteerID == "player" {
		t.Fatal("player cannot be the accepteer")
	}
	if w.DeadlineTick < 1+int64(m.rules.DeadlineMinDays) || w.DeadlineTick > 1+int64(m.rules.DeadlineMaxDays) {
		t.Fatalf("deadline %d outside %d..%d days", w.DeadlineTick, m.rules.DeadlineMinDays, m.rules.DeadlineMaxDays)
	}
}

func TestGivenOutTakeIsDeterministicForFixedSeed(t *testing.T) {
	run := func() (string, int64) {
		m, env := newTestManager(t)
		m.rules.AcceptRefDays = 1
		m.cfg.DayTicks = 1
		addTarget(env, "tgt", 1000)
		w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 1000})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		m.runGivenOut(1)
		return w.AccepteerID, w.DeadlineTick
	}
	a1, d1 := run()
	a2, d2 := run()
	if a1 != a2 || d1 != d2 {
		t.Fatalf("fixed seed diverged: (%s,%d) vs (%s,%d)", a1, d1, a2, d2)
	}
}

func TestTakenSuccessQueuesPendingDecision(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := issueTaken(t, m, "tgt", "fac_a", 1000, 10) // SuccessChance 1

	m.tick.Store(10)
	m.runTaken(10)

	d, ok := m.pending[w.ID]
	if !ok {
		t.Fatal("no pending decision queued")
	}
	if d.Amount != 1000 || d.DeadTier {
		t.Fatalf("decision = %+v, want living tier 1000", d)
	}
	if len(m.taken) != 1 {
		t.Fatal("warrant should stay in taken queue while the decision is pending")
	}

	// Pending warrants are not re-rolled.
	m.runTaken(11)
	if len(m.taken) != 1 || w.Status != StatusTaken {
		t.Fatal("pending warrant disturbed by later sweeps")
	}
}

func TestTakenFailureCostsAccepteerGoodwill(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 100000)
	w := issueTaken(t, m, "tgt", "fac_a", 1, 10)
	w.RewardLiving = 0 // SuccessChance drops to 0: the roll must fail

	m.tick.Store(10)
	m.runTaken(10)

	if w.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", w.Status)
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != -m.rules.FailedByThirdPartyGoodwill {
		t.Fatalf("goodwill = %d, want %d", got, -m.rules.FailedByThirdPartyGoodwill)
	}
	if len(m.taken) != 0 {
		t.Fatal("failed warrant still in taken queue")
	}
}

func TestHostileAccepteerReturnsWarrant(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := issueTaken(t, m, "tgt", "fac_a", 500, 1000)

	env.factions.SetGoodwill("fac_a", "player", -80)
	before := env.factions.Goodwill("fac_a", "player")
	m.runTaken(5)

	if w.Status != StatusGivenOut || len(m.givenOut) != 1 || len(m.taken) != 0 {
		t.Fatalf("warrant not returned: status=%s", w.Status)
	}
	if w.AccepteerID != "" || w.DeadlineTick != -1 {
		t.Fatalf("pursuit fields not reset: accepteer=%q deadline=%d", w.AccepteerID, w.DeadlineTick)
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != before {
		t.Fatalf("return applied a penalty: %d -> %d", before, got)
	}
}

func TestAcceptedFailureTriggersRetaliation(t *testing.T) {
	m, env := newTestManager(t)
	m.rules.RetaliationChance = 1
	s := addTarget(env, "tgt", 1000)
	colonist := addTarget(env, "colonist", 1500)
	colonist.FactionID = "player"

	w := addAvailable(m, "tgt", 800, 0)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	env.subjects.MarkDead(s) // living-only warrant goes inactive
	m.runAccepted(20)

	if w.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", w.Status)
	}
	if env.quests.ended[w.QuestHandle] != QuestFail {
		t.Fatalf("quest outcome: %v", env.quests.ended)
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != -m.rules.FailedByPlayerGoodwill {
		t.Fatalf("goodwill = %d, want %d", got, -m.rules.FailedByPlayerGoodwill)
	}
	if len(m.available) != 1 {
		t.Fatalf("no retaliation warrant posted: available=%d", len(m.available))
	}
	r := m.available[0]
	if r.IssuerID != "fac_a" || r.TargetID != "colonist" {
		t.Fatalf("retaliation = issuer %s target %s", r.IssuerID, r.TargetID)
	}
}

func TestThreatEscalationTargetsPlayerOwnedSubjects(t *testing.T) {
	m, env := newTestManager(t)
	m.rules.BountyRaidMTBDays = 0.000001 // effectively always fires
	colonist := addTarget(env, "colonist", 1500)
	colonist.FactionID = "player"
	addTarget(env, "stranger", 1000)

	addAvailable(m, "colonist", 700, 0)
	addAvailable(m, "stranger", 700, 0)

	m.runThreatEscalation(1)
	if len(env.incidents.raids) != 1 {
		t.Fatalf("raids = %d, want 1", len(env.incidents.raids))
	}
	if env.incidents.raids[0].Kind != RaidBountyHunters || env.incidents.raids[0].TargetID != "colonist" {
		t.Fatalf("raid = %+v", env.incidents.raids[0])
	}
}

func TestMaintenanceGeneratesWarrantWithCertainRoll(t *testing.T) {
	m, _ := newTestManager(t)
	m.rules.WarrantGenMTBDays = 0.000001

	m.runMaintenance(250)
	if len(m.available) != 1 {
		t.Fatalf("available = %d, want 1 generated warrant", len(m.available))
	}
	w := m.available[0]
	if w.IssuerID == "player" || w.MaxReward() <= 0 {
		t.Fatalf("generated warrant = %+v", w)
	}
}

func TestRewardScalingBlocksImplausibleWarrants(t *testing.T) {
	m, env := newTestManager(t)
	m.rules.WarrantGenMTBDays = 0.000001
	env.wealth.wealth = 10 // 5% of 10 covers nothing

	m.runMaintenance(250)
	if len(m.available) != 0 {
		t.Fatalf("available = %d, want 0 (reward implausible for wealth)", len(m.available))
	}
}

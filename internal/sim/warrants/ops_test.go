package warrants

import (
	"testing"

	"warrantsim.ai/internal/protocol"
)

func TestIssueValidation(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)

	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt"}); err == nil || err.Code != protocol.ErrValidation {
		t.Fatalf("zero-reward issue: got %v, want E_VALIDATION", err)
	}
	if _, err := m.Issue(IssueParams{Kind: Kind("DRAGON"), TargetID: "tgt", RewardLiving: 100}); err == nil || err.Code != protocol.ErrBadRequest {
		t.Fatalf("bad kind: got %v, want E_BAD_REQUEST", err)
	}
	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "ghost", RewardLiving: 100}); err == nil || err.Code != protocol.ErrValidation {
		t.Fatalf("unknown target: got %v, want E_VALIDATION", err)
	}

	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 500, Reason: "arson"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w.Status != StatusGivenOut || countAcross(m, w.ID) != 1 {
		t.Fatalf("issued warrant not in given-out queue: %s", w.Status)
	}
}

func TestIssueCapOnOutstandingWarrants(t *testing.T) {
	m, env := newTestManager(t)
	for i := 0; i < m.rules.MaxPlayerWarrants; i++ {
		id := addTarget(env, string(rune('a'+i))+"_tgt", 1000).ID
		if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: id, RewardLiving: 100}); err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
	}
	addTarget(env, "one_too_many", 1000)
	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "one_too_many", RewardLiving: 100}); err == nil || err.Code != protocol.ErrValidation {
		t.Fatalf("cap: got %v, want E_VALIDATION", err)
	}
}

func TestIssueOnNonHostileFactionCostsGoodwill(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "member", 1000)
	s.FactionID = "fac_a"

	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "member", RewardLiving: 500}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != -m.rules.IssueOnNonHostileGoodwill {
		t.Fatalf("goodwill = %d, want %d", got, -m.rules.IssueOnNonHostileGoodwill)
	}
}

func TestAcceptRejectsWrongQueue(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 500, 0)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.Accept(w.ID); err == nil || err.Code != protocol.ErrWrongQueue {
		t.Fatalf("double accept: got %v, want E_WRONG_QUEUE", err)
	}
	if err := m.Accept("W999999"); err == nil || err.Code != protocol.ErrNotFound {
		t.Fatalf("missing warrant: got %v, want E_NOT_FOUND", err)
	}
}

func TestFulfillLivingTarget(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 800, 300)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	before := env.stock.Total()
	if err := m.Fulfill(w.ID, "tgt"); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if w.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", w.Status)
	}
	if got := env.stock.Total(); got != before+800 {
		t.Fatalf("stock = %d, want %d", got, before+800)
	}
	if env.quests.ended[w.QuestHandle] != QuestSuccess {
		t.Fatalf("quest outcome: %v", env.quests.ended)
	}
	if s := env.subjects.Get("tgt"); !s.Destroyed {
		t.Fatal("delivered subject should leave the player's world")
	}
}

func TestFulfillCorpsePaysDeadTier(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 800, 300)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	corpse := env.subjects.MarkDead(s)
	before := env.stock.Total()
	if err := m.Fulfill(w.ID, corpse.ID); err != nil {
		t.Fatalf("fulfill corpse: %v", err)
	}
	if got := env.stock.Total(); got != before+300 {
		t.Fatalf("stock = %d, want %d (dead tier)", got, before+300)
	}
}

func TestFulfillRejectsMismatchedDelivery(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	addTarget(env, "bystander", 900)
	w := addAvailable(m, "tgt", 500, 0)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.Fulfill(w.ID, "bystander"); err == nil || err.Code != protocol.ErrValidation {
		t.Fatalf("mismatch: got %v, want E_VALIDATION", err)
	}
}

func TestAnimalWarrantAcceptsSameSpecies(t *testing.T) {
	m, env := newTestManager(t)
	want := &Subject{ID: "an1", Kind: SubjectAnimal, Label: "muffalo", Species: "muffalo", MarketValue: 500, Tamed: true, Spawned: true}
	other := &Subject{ID: "an2", Kind: SubjectAnimal, Label: "muffalo", Species: "muffalo", MarketValue: 480, Tamed: true, Spawned: true}
	env.subjects.Add(want)
	env.subjects.Add(other)

	w := &Warrant{
		ID: m.newWarrantID(), Kind: KindAnimal, TargetID: "an1", IssuerID: "fac_a",
		Status: StatusAvailable, RewardLiving: 400, CreatedTick: 0, AcceptedTick: -1, DeadlineTick: -1,
	}
	m.available = append(m.available, w)
	if err := m.Accept(w.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := m.Fulfill(w.ID, "an2"); err != nil {
		t.Fatalf("same-species delivery rejected: %v", err)
	}
}

func TestResolvePayConsumesStockAndAppliesOutcome(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "tgt", 1000)
	s.FactionID = "fac_b"
	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 600, RewardDead: 0})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w.Status = StatusTaken
	w.AccepteerID = "fac_a"
	removeWarrant(&m.givenOut, w)
	m.taken = append(m.taken, w)
	m.pending[w.ID] = &PendingDecision{WarrantID: w.ID, AccepteerID: "fac_a", DeadTier: false, Amount: 600, DecidedTick: 1}

	before := env.stock.Total()
	if err := m.Resolve(w.ID, true); err != nil {
		t.Fatalf("resolve pay: %v", err)
	}
	if got := env.stock.Total(); got != before-600 {
		t.Fatalf("stock = %d, want %d", got, before-600)
	}
	if w.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", w.Status)
	}
	if _, ok := m.pending[w.ID]; ok {
		t.Fatal("pending decision not cleared")
	}
	if s.FactionID != "player" || !s.Spawned {
		t.Fatal("living target not handed over to the player")
	}
}

func TestResolvePayDeadTierMarksTargetDead(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "tgt", 1000)
	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 600, RewardDead: 250})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w.Status = StatusTaken
	w.AccepteerID = "fac_a"
	removeWarrant(&m.givenOut, w)
	m.taken = append(m.taken, w)
	m.pending[w.ID] = &PendingDecision{WarrantID: w.ID, AccepteerID: "fac_a", DeadTier: true, Amount: 250, DecidedTick: 1}

	if err := m.Resolve(w.ID, true); err != nil {
		t.Fatalf("resolve pay: %v", err)
	}
	if !s.Dead || s.CorpseID == "" {
		t.Fatal("dead-tier payout should mark the target dead with a corpse")
	}
}

func TestResolveRefuseCostsGoodwillAndProvokesRaid(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 600})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w.Status = StatusTaken
	w.AccepteerID = "fac_a"
	removeWarrant(&m.givenOut, w)
	m.taken = append(m.taken, w)
	m.pending[w.ID] = &PendingDecision{WarrantID: w.ID, AccepteerID: "fac_a", Amount: 600, DecidedTick: 1}

	if err := m.Resolve(w.ID, false); err != nil {
		t.Fatalf("resolve refuse: %v", err)
	}
	if got := env.factions.Goodwill("fac_a", "player"); got != -m.rules.RefusedPayoutGoodwill {
		t.Fatalf("goodwill = %d, want %d", got, -m.rules.RefusedPayoutGoodwill)
	}
	if !env.factions.HostileTo("fac_a", "player") {
		t.Fatal("refused faction should turn hostile")
	}
	if len(env.incidents.raids) != 1 || env.incidents.raids[0].Kind != RaidRetaliation {
		t.Fatalf("raids = %+v, want one RETALIATION", env.incidents.raids)
	}
}

func TestResolveInsufficientFundsKeepsDecisionPending(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 600})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w.Status = StatusTaken
	w.AccepteerID = "fac_a"
	removeWarrant(&m.givenOut, w)
	m.taken = append(m.taken, w)
	m.pending[w.ID] = &PendingDecision{WarrantID: w.ID, AccepteerID: "fac_a", Amount: 5000, DecidedTick: 1}

	if err := m.Resolve(w.ID, true); err == nil || err.Code != protocol.ErrNoFunds {
		t.Fatalf("resolve: got %v, want E_NO_FUNDS", err)
	}
	if _, ok := m.pending[w.ID]; !ok {
		t.Fatal("pending decision dropped on failed payment")
	}
	if got := env.stock.Total(); got != 1000 {
		t.Fatalf("stock = %d, want untouched 1000", got)
	}

	// Topping up silver lets the retry settle.
	env.stock.Add(4000)
	if err := m.Resolve(w.ID, true); err != nil {
		t.Fatalf("retry resolve: %v", err)
	}
}

func TestResolveWithoutDecision(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 500, 0)
	if err := m.Resolve(w.ID, true); err == nil || err.Code != protocol.ErrNoDecision {
		t.Fatalf("resolve: got %v, want E_NO_DECISION", err)
	}
}

func TestCompensateSettlesWarrantOnOwnColonist(t *testing.T) {
	m, env := newTestManager(t)
	s := addTarget(env, "colonist", 1000)
	s.FactionID = "player"
	w := addAvailable(m, "colonist", 700, 0)

	before := env.stock.Total()
	if err := m.Compensate(w.ID); err != nil {
		t.Fatalf("compensate: %v", err)
	}
	if got := env.stock.Total(); got != before-700 {
		t.Fatalf("stock = %d, want %d", got, before-700)
	}
	if countAcross(m, w.ID) != 0 || w.Status != StatusCompleted {
		t.Fatalf("warrant not settled: status=%s", w.Status)
	}
}

func TestDeclineRemovesFromBoard(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)
	w := addAvailable(m, "tgt", 500, 0)
	if err := m.Decline(w.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if countAcross(m, w.ID) != 0 {
		t.Fatal("declined warrant still queued")
	}
}

func TestApplyOpRoutesAndReportsErrors(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)

	res := m.applyOp(1, protocol.ActMsg{Op: protocol.OpIssue, Kind: "PERSON", TargetID: "tgt", RewardLiving: 400})
	if !res.OK || res.WarrantID == "" {
		t.Fatalf("issue result: %+v", res)
	}
	res = m.applyOp(1, protocol.ActMsg{Op: protocol.OpAccept, WarrantID: "W999999"})
	if res.OK || res.Code != protocol.ErrNotFound {
		t.Fatalf("accept result: %+v", res)
	}
	res = m.applyOp(1, protocol.ActMsg{Op: "DANCE"})
	if res.OK || res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("unknown op result: %+v", res)
	}
	if !protocol.IsKnownCode(res.Code) {
		t.Fatalf("unknown error code %q", res.Code)
	}
}

func TestIssueFailuresDoNotBurnWarrantIDs(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)

	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt"}); err == nil {
		t.Fatal("zero-reward issue should fail")
	}
	if _, err := m.Issue(IssueParams{Kind: "GOLEM", TargetID: "tgt", Reward: 100}); err == nil {
		t.Fatal("unknown-kind issue should fail")
	}

	w, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt", RewardLiving: 500})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w.ID != "W000001" {
		t.Fatalf("id = %s, want W000001: rejected issues must not consume ids", w.ID)
	}
}

func TestPutWarrantOnBypassesIssueCap(t *testing.T) {
	m, env := newTestManager(t)
	m.rules.MaxPlayerWarrants = 1
	addTarget(env, "tgt1", 1000)
	addTarget(env, "tgt2", 1000)

	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt1", RewardLiving: 500}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Issue(IssueParams{Kind: KindPerson, TargetID: "tgt2", RewardLiving: 500}); err == nil || err.Code != protocol.ErrValidation {
		t.Fatalf("second issue: got %v, want E_VALIDATION", err)
	}

	// The programmatic path (incident triggers) ignores the cap.
	w, perr := m.PutWarrantOn("tgt2", "assault", "")
	if perr != nil {
		t.Fatalf("put warrant on: %v", perr)
	}
	if w.IssuerID != "player" || w.Status != StatusGivenOut {
		t.Fatalf("warrant = %+v, want player-issued GIVEN_OUT", w)
	}
	if len(m.givenOut) != 2 {
		t.Fatalf("given out = %d, want 2", len(m.givenOut))
	}
}

func TestPutWarrantOnRoutesByIssuer(t *testing.T) {
	m, env := newTestManager(t)
	addTarget(env, "tgt", 1000)

	npc, err := m.PutWarrantOn("tgt", "assault", "fac_a")
	if err != nil {
		t.Fatalf("npc put: %v", err)
	}
	if npc.IssuerID != "fac_a" || npc.Status != StatusAvailable || npc.Reason != "assault" {
		t.Fatalf("npc warrant = %+v, want fac_a AVAILABLE", npc)
	}
	if npc.MaxReward() <= 0 {
		t.Fatalf("npc reward = %d, want > 0", npc.MaxReward())
	}
	if len(m.available) != 1 || m.available[0] != npc {
		t.Fatalf("available = %+v", m.available)
	}

	own, err := m.PutWarrantOn("tgt", "assault", "")
	if err != nil {
		t.Fatalf("player put: %v", err)
	}
	if own.IssuerID != "player" || own.Status != StatusGivenOut {
		t.Fatalf("player warrant = %+v, want player GIVEN_OUT", own)
	}
	if len(m.givenOut) != 1 || m.givenOut[0] != own {
		t.Fatalf("given out = %+v", m.givenOut)
	}
}

func TestPutWarrantOnArtifactUsesMarketValue(t *testing.T) {
	m, env := newTestManager(t)
	env.subjects.Add(&Subject{ID: "art", Kind: SubjectArtifact, Label: "psychic lance", MarketValue: 2200, Spawned: true})

	w, err := m.PutWarrantOn("art", "", "fac_a")
	if err != nil {
		t.Fatalf("put warrant on: %v", err)
	}
	if w.Kind != KindArtifact || w.Reward != 2200 || w.RewardLiving != 0 || w.RewardDead != 0 {
		t.Fatalf("warrant = %+v, want artifact reward 2200", w)
	}
	if w.Status != StatusAvailable {
		t.Fatalf("status = %s, want AVAILABLE", w.Status)
	}
}

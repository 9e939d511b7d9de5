package warrants

import (
	"fmt"

	"warrantsim.ai/internal/protocol"
)

// OpError is a structured failure reason. Validation problems are reported
// to the caller, never thrown; nothing in here terminates the host.
type OpError struct {
	Code string
	Msg  string
}

func (e *OpError) Error() string { return e.Code + ": " + e.Msg }

func opErrf(code, format string, args ...any) *OpError {
	return &OpError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// IssueParams describes a player-created warrant.
type IssueParams struct {
	Kind         Kind
	TargetID     string
	Reason       string
	RewardLiving int
	RewardDead   int
	Reward       int
}

// Issue creates a player-issued warrant and posts it for third-party
// pickup. Enforces the outstanding-warrant cap and reward validation.
func (m *Manager) Issue(p IssueParams) (*Warrant, *OpError) {
	now := m.tick.Load()
	playerID := m.deps.Factions.PlayerID()

	switch p.Kind {
	case KindPerson, KindAnimal, KindArtifact:
	default:
		return nil, opErrf(protocol.ErrBadRequest, "unknown warrant kind %q", p.Kind)
	}
	target := m.deps.Subjects.Get(p.TargetID)
	if target == nil || !target.IsValid() {
		return nil, opErrf(protocol.ErrValidation, "target %q does not resolve", p.TargetID)
	}
	w := &Warrant{
		Kind:         p.Kind,
		TargetID:     p.TargetID,
		IssuerID:     playerID,
		Status:       StatusGivenOut,
		Reason:       p.Reason,
		RewardLiving: p.RewardLiving,
		RewardDead:   p.RewardDead,
		Reward:       p.Reward,
		CreatedTick:  now,
		AcceptedTick: -1,
		DeadlineTick: -1,
	}
	if w.MaxReward() <= 0 {
		return nil, opErrf(protocol.ErrValidation, "warrant must offer a reward")
	}
	if m.playerIssuedCount() >= m.rules.MaxPlayerWarrants {
		return nil, opErrf(protocol.ErrValidation, "at most %d outstanding warrants", m.rules.MaxPlayerWarrants)
	}

	// The id is allocated only once validation has passed so rejected
	// issues leave no gap in the sequence.
	w.ID = m.newWarrantID()
	m.onCreate(now, w)
	m.givenOut = append(m.givenOut, w)
	m.dirty = true
	m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_ISSUED", WarrantID: w.ID, SubjectID: w.TargetID, Amount: w.MaxReward()})
	return w, nil
}

func (m *Manager) playerIssuedCount() int {
	playerID := m.deps.Factions.PlayerID()
	n := 0
	for _, q := range [][]*Warrant{m.givenOut, m.taken} {
		for _, w := range q {
			if w.IssuerID == playerID {
				n++
			}
		}
	}
	return n
}

// onCreate fires the one-time creation side effect: putting a bounty on a
// member of a non-hostile faction damages standing with that faction
// immediately, regardless of how the warrant ends.
func (m *Manager) onCreate(now int64, w *Warrant) {
	if w.Kind == KindArtifact {
		return
	}
	reg := m.deps.Subjects
	being := reg.inner(reg.Get(w.TargetID))
	if being == nil || being.FactionID == "" {
		return
	}
	playerID := m.deps.Factions.PlayerID()
	if being.FactionID == playerID || m.deps.Factions.HostileTo(being.FactionID, playerID) {
		return
	}
	m.deps.Factions.AffectGoodwill(being.FactionID, playerID, -m.rules.IssueOnNonHostileGoodwill)
	m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_ONCREATE_PENALTY", WarrantID: w.ID, FactionID: being.FactionID, Amount: -m.rules.IssueOnNonHostileGoodwill})
}

// PutWarrantOn is the programmatic creation path used by external incident
// triggers. It bypasses the manual-creation cap and derives rewards from
// the subject's market value.
func (m *Manager) PutWarrantOn(subjectID, reason, issuerID string) (*Warrant, *OpError) {
	now := m.tick.Load()
	target := m.deps.Subjects.Get(subjectID)
	if target == nil || !target.IsValid() {
		return nil, opErrf(protocol.ErrValidation, "subject %q does not resolve", subjectID)
	}
	if issuerID == "" {
		issuerID = m.deps.Factions.PlayerID()
	}
	if target.Kind == SubjectArtifact {
		w := &Warrant{
			ID:           m.newWarrantID(),
			Kind:         KindArtifact,
			TargetID:     subjectID,
			IssuerID:     issuerID,
			Status:       StatusAvailable,
			Reward:       target.MarketValue,
			CreatedTick:  now,
			AcceptedTick: -1,
			DeadlineTick: -1,
		}
		m.placeCreated(now, w)
		return w, nil
	}
	w := m.buildBeingWarrant(now, hashID(subjectID), target, issuerID)
	w.Reason = reason
	m.placeCreated(now, w)
	return w, nil
}

func (m *Manager) placeCreated(now int64, w *Warrant) {
	m.onCreate(now, w)
	if w.IssuerID == m.deps.Factions.PlayerID() {
		w.Status = StatusGivenOut
		m.givenOut = append(m.givenOut, w)
	} else {
		w.Status = StatusAvailable
		m.available = append(m.available, w)
	}
	m.dirty = true
	m.audit(AuditEntry{Tick: now, Actor: w.IssuerID, Action: "WARRANT_ISSUED", WarrantID: w.ID, SubjectID: w.TargetID, Amount: w.MaxReward()})
}

// Accept moves an available warrant to the player's accepted queue and
// launches the linked quest.
func (m *Manager) Accept(warrantID string) *OpError {
	now := m.tick.Load()
	w, queue := m.findWarrant(warrantID)
	if w == nil {
		return opErrf(protocol.ErrNotFound, "no warrant %q", warrantID)
	}
	if queue != &m.available {
		return opErrf(protocol.ErrWrongQueue, "warrant %q is not on the board", warrantID)
	}
	playerID := m.deps.Factions.PlayerID()
	if w.IssuerID == playerID {
		return opErrf(protocol.ErrValidation, "cannot accept your own warrant")
	}
	removeWarrant(&m.available, w)
	w.Status = StatusAccepted
	w.AccepteerID = playerID
	w.AcceptedTick = now
	m.accepted = append(m.accepted, w)
	m.dirty = true

	if m.deps.Quests != nil {
		target := m.deps.Subjects.Get(w.TargetID)
		label := ""
		if target != nil {
			label = target.Label
		}
		handle, err := m.deps.Quests.Launch(QuestRequest{
			WarrantID:    w.ID,
			Kind:         w.Kind,
			TargetID:     w.TargetID,
			TargetLabel:  label,
			Reason:       w.Reason,
			AskerID:      w.IssuerID,
			RewardLiving: w.RewardLiving,
			RewardDead:   w.RewardDead,
			Reward:       w.Reward,
		})
		if err == nil {
			w.QuestHandle = handle
		}
	}
	m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_ACCEPTED", WarrantID: w.ID})
	return nil
}

// Decline removes a warrant from the board, or retracts a player-issued
// warrant that no third party has taken yet.
func (m *Manager) Decline(warrantID string) *OpError {
	now := m.tick.Load()
	w, queue := m.findWarrant(warrantID)
	if w == nil {
		return opErrf(protocol.ErrNotFound, "no warrant %q", warrantID)
	}
	playerID := m.deps.Factions.PlayerID()
	switch queue {
	case &m.available:
		removeWarrant(&m.available, w)
	case &m.givenOut:
		if w.IssuerID != playerID {
			return opErrf(protocol.ErrWrongQueue, "warrant %q is not yours to retract", warrantID)
		}
		removeWarrant(&m.givenOut, w)
	default:
		return opErrf(protocol.ErrWrongQueue, "warrant %q cannot be declined in its current state", warrantID)
	}
	m.suppressEffects(w)
	m.dirty = true
	m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_DECLINED", WarrantID: w.ID})
	return nil
}

// Remove purges a warrant from every queue without side effects. Host
// administration path; gameplay removal goes through Decline.
func (m *Manager) Remove(warrantID string) *OpError {
	w, _ := m.findWarrant(warrantID)
	if w == nil {
		return opErrf(protocol.ErrNotFound, "no warrant %q", warrantID)
	}
	m.suppressEffects(w)
	m.purgeAll(w)
	m.audit(AuditEntry{Tick: m.tick.Load(), Actor: actorEngine, Action: "WARRANT_REMOVED", WarrantID: w.ID})
	return nil
}

// Fulfill hands a delivered subject in against an accepted warrant: the
// delivered form must match the warrant's target identity rules, the
// matching reward tier is paid into the player's stock, and the linked
// quest ends in success.
func (m *Manager) Fulfill(warrantID, deliveredID string) *OpError {
	now := m.tick.Load()
	w, queue := m.findWarrant(warrantID)
	if w == nil {
		return opErrf(protocol.ErrNotFound, "no warrant %q", warrantID)
	}
	if queue != &m.accepted {
		return opErrf(protocol.ErrWrongQueue, "warrant %q was not accepted by you", warrantID)
	}
	if !w.IsActive(m.deps.Subjects) {
		return opErrf(protocol.ErrValidation, "warrant %q can no longer be completed", warrantID)
	}
	delivered := m.deps.Subjects.Get(deliveredID)
	if delivered == nil {
		return opErrf(protocol.ErrNotFound, "no subject %q", deliveredID)
	}
	if !w.matchesDelivery(m.deps.Subjects, delivered) {
		return opErrf(protocol.ErrValidation, "%q does not satisfy warrant %q", deliveredID, warrantID)
	}

	tier := w.rewardTierFor(delivered)
	removeWarrant(&m.accepted, w)
	m.conclude(w, StatusCompleted, func() {
		if tier > 0 {
			m.deps.Stock.Add(tier)
		}
		if w.QuestHandle != "" && m.deps.Quests != nil {
			m.deps.Quests.End(w.QuestHandle, QuestSuccess)
		}
	})
	// The delivered subject is handed over to the issuer and leaves the
	// player's world.
	delivered.Spawned = false
	delivered.Held = false
	delivered.Destroyed = true

	m.audit(AuditEntry{Tick: now, Actor: m.deps.Factions.PlayerID(), Action: "WARRANT_FULFILLED", WarrantID: w.ID, SubjectID: deliveredID, Amount: tier})
	m.notify(now, "WARRANT_FULFILLED", fmt.Sprintf("Warrant %s fulfilled for %d silver.", w.ID, tier), w.ID)
	return nil
}

// Resolve settles the suspended pay-or-refuse decision for a delivered
// player-issued warrant. Pay consumes stock and applies the dead/living
// outcome to the subject; refuse costs goodwill and provokes a raid. On
// insufficient funds the decision stays pending for a later retry.
func (m *Manager) Resolve(warrantID string, pay bool) *OpError {
	now := m.tick.Load()
	d, ok := m.pending[warrantID]
	if !ok {
		return opErrf(protocol.ErrNoDecision, "warrant %q has no pending delivery", warrantID)
	}
	w, queue := m.findWarrant(warrantID)
	if w == nil || queue != &m.taken {
		delete(m.pending, warrantID)
		return opErrf(protocol.ErrNotFound, "warrant %q is gone", warrantID)
	}

	playerID := m.deps.Factions.PlayerID()
	if !pay {
		delete(m.pending, warrantID)
		removeWarrant(&m.taken, w)
		m.conclude(w, StatusFailed, func() {
			m.deps.Factions.AffectGoodwill(d.AccepteerID, playerID, -m.rules.RefusedPayoutGoodwill)
			if m.deps.Incidents != nil {
				m.deps.Incidents.TriggerRaid(RaidRequest{
					Kind:      RaidRetaliation,
					FactionID: d.AccepteerID,
					WarrantID: w.ID,
					Scale:     m.rules.BountyRaidScale,
				})
			}
		})
		m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_PAYOUT_REFUSED", WarrantID: w.ID, FactionID: d.AccepteerID, Amount: -m.rules.RefusedPayoutGoodwill})
		m.notify(now, "WARRANT_REFUSED", fmt.Sprintf("You refused to pay %s for warrant %s.", d.AccepteerID, w.ID), w.ID)
		return nil
	}

	if !m.deps.Stock.TryPay(d.Amount) {
		return opErrf(protocol.ErrNoFunds, "need %d silver, have %d", d.Amount, m.deps.Stock.Total())
	}
	delete(m.pending, warrantID)
	removeWarrant(&m.taken, w)
	m.conclude(w, StatusCompleted, func() {
		reg := m.deps.Subjects
		being := reg.inner(reg.Get(w.TargetID))
		if being == nil {
			return
		}
		if d.DeadTier {
			reg.MarkDead(being)
		} else {
			// Handed over alive; the subject is now the player's problem.
			being.FactionID = playerID
			being.Spawned = true
		}
	})
	m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_PAID", WarrantID: w.ID, FactionID: d.AccepteerID, Amount: d.Amount})
	m.notify(now, "WARRANT_PAID", fmt.Sprintf("Paid %s %d silver for warrant %s.", d.AccepteerID, d.Amount, w.ID), w.ID)
	return nil
}

// Compensate pays off a warrant targeting one of the player's own
// subjects: the full maximum reward is settled from stock and the warrant
// is withdrawn.
func (m *Manager) Compensate(warrantID string) *OpError {
	now := m.tick.Load()
	w, queue := m.findWarrant(warrantID)
	if w == nil {
		return opErrf(protocol.ErrNotFound, "no warrant %q", warrantID)
	}
	if queue != &m.available {
		return opErrf(protocol.ErrWrongQueue, "warrant %q cannot be compensated in its current state", warrantID)
	}
	playerID := m.deps.Factions.PlayerID()
	if w.IssuerID == playerID {
		return opErrf(protocol.ErrValidation, "cannot compensate your own warrant")
	}
	amount := w.MaxReward()
	if !m.deps.Stock.TryPay(amount) {
		return opErrf(protocol.ErrNoFunds, "need %d silver, have %d", amount, m.deps.Stock.Total())
	}
	removeWarrant(&m.available, w)
	m.conclude(w, StatusCompleted, nil)
	m.suppressEffects(w)
	m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_COMPENSATED", WarrantID: w.ID, FactionID: w.IssuerID, Amount: amount})
	m.notify(now, "WARRANT_COMPENSATED", fmt.Sprintf("Paid %d silver to settle warrant %s.", amount, w.ID), w.ID)
	return nil
}

// applyOp maps one transport ACT to the corresponding operation.
func (m *Manager) applyOp(now int64, act protocol.ActMsg) protocol.ResultMsg {
	res := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Op:              act.Op,
		WarrantID:       act.WarrantID,
	}
	var err *OpError
	switch act.Op {
	case protocol.OpIssue:
		var w *Warrant
		w, err = m.Issue(IssueParams{
			Kind:         Kind(act.Kind),
			TargetID:     act.TargetID,
			Reason:       act.Reason,
			RewardLiving: act.RewardLiving,
			RewardDead:   act.RewardDead,
			Reward:       act.Reward,
		})
		if w != nil {
			res.WarrantID = w.ID
		}
	case protocol.OpAccept:
		err = m.Accept(act.WarrantID)
	case protocol.OpDecline:
		err = m.Decline(act.WarrantID)
	case protocol.OpFulfill:
		err = m.Fulfill(act.WarrantID, act.DeliveredID)
	case protocol.OpResolve:
		err = m.Resolve(act.WarrantID, act.Pay)
	case protocol.OpCompensate:
		err = m.Compensate(act.WarrantID)
	case protocol.OpRemove:
		err = m.Remove(act.WarrantID)
	default:
		err = opErrf(protocol.ErrProtoBadRequest, "unknown op %q", act.Op)
	}
	if err != nil {
		res.OK = false
		res.Code = err.Code
		res.Message = err.Msg
	} else {
		res.OK = true
	}
	_ = now
	return res
}

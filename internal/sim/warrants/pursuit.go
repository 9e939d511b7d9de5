package warrants

import "fmt"

// runGivenOut is phase 3: player-issued warrants awaiting pickup. The
// acceptance chance is a probability over the reference window (default 7
// in-world days), converted to a per-tick roll.
func (m *Manager) runGivenOut(now int64) {
	refTicks := float64(m.rules.AcceptRefDays) * float64(m.cfg.DayTicks)
	if refTicks <= 0 {
		return
	}
	for i := len(m.givenOut) - 1; i >= 0; i-- {
		w := m.givenOut[i]
		pTick := clamp01(w.AcceptChance(m.deps.Subjects) / refTicks)
		if !m.rollChance(pTick, now, saltTakeRoll, hashID(w.ID)) {
			continue
		}
		taker := m.deps.Factions.PickEligible(w.IssuerID, m.roll(now, saltTakeFaction, hashID(w.ID)))
		if taker == nil {
			// NoEligibleFaction: skip this tick, retried on the next roll.
			continue
		}
		m.givenOut = append(m.givenOut[:i], m.givenOut[i+1:]...)
		w.Status = StatusTaken
		w.AccepteerID = taker.ID
		w.AcceptedTick = now
		days := m.rangeInt(m.rules.DeadlineMinDays, m.rules.DeadlineMaxDays, now, saltDeadline, hashID(w.ID))
		w.DeadlineTick = now + int64(days)*int64(m.cfg.DayTicks)
		m.taken = append(m.taken, w)
		m.dirty = true
		m.audit(AuditEntry{Tick: now, Actor: taker.ID, Action: "WARRANT_TAKEN", WarrantID: w.ID, FactionID: taker.ID})
		m.notify(now, "WARRANT_TAKEN", fmt.Sprintf("%s has taken up your warrant %s.", taker.Name, w.ID), w.ID)
	}
}

// runTaken is phase 4: in-progress third-party pursuits. Hostile
// accepteers bounce the contract back to the pool; past the deadline the
// success roll either queues the suspended pay-or-refuse decision or fails
// the warrant with a goodwill penalty.
func (m *Manager) runTaken(now int64) {
	playerID := m.deps.Factions.PlayerID()
	for i := len(m.taken) - 1; i >= 0; i-- {
		w := m.taken[i]
		if _, waiting := m.pending[w.ID]; waiting {
			continue
		}

		if m.deps.Factions.HostileTo(w.AccepteerID, playerID) {
			former := w.AccepteerID
			m.taken = append(m.taken[:i], m.taken[i+1:]...)
			w.Status = StatusGivenOut
			w.AccepteerID = ""
			w.AcceptedTick = -1
			w.DeadlineTick = -1
			m.givenOut = append(m.givenOut, w)
			m.dirty = true
			m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_RETURNED", WarrantID: w.ID, FactionID: former})
			m.notify(now, "WARRANT_RETURNED", fmt.Sprintf("%s turned hostile and abandoned warrant %s; it is back on offer.", former, w.ID), w.ID)
			continue
		}

		if w.DeadlineTick < 0 || now < w.DeadlineTick {
			continue
		}

		if m.rollChance(w.SuccessChance(m.deps.Subjects), now, saltSuccess, hashID(w.ID)) {
			m.queueDecision(now, w)
			continue
		}

		accepteer := w.AccepteerID
		m.taken = append(m.taken[:i], m.taken[i+1:]...)
		m.conclude(w, StatusFailed, func() {
			m.deps.Factions.AffectGoodwill(accepteer, playerID, -m.rules.FailedByThirdPartyGoodwill)
		})
		m.audit(AuditEntry{Tick: now, Actor: accepteer, Action: "WARRANT_FAILED", WarrantID: w.ID, FactionID: accepteer, Amount: -m.rules.FailedByThirdPartyGoodwill})
		m.notify(now, "WARRANT_FAILED", fmt.Sprintf("%s failed to bring in the target of warrant %s.", accepteer, w.ID), w.ID)
	}
}

// queueDecision records the suspended pay-or-refuse choice. The warrant
// stays in the taken queue; side effects run when the player resolves it.
func (m *Manager) queueDecision(now int64, w *Warrant) {
	dead := false
	amount := w.MaxReward()
	if w.Kind != KindArtifact {
		switch {
		case w.RewardDead > 0 && w.RewardLiving > 0:
			pDead := float64(w.RewardDead) / float64(w.RewardDead+w.RewardLiving)
			dead = m.rollChance(pDead, now, saltTier, hashID(w.ID))
		case w.RewardDead > 0:
			dead = true
		}
		if dead {
			amount = w.RewardDead
		} else {
			amount = w.RewardLiving
		}
	}
	m.pending[w.ID] = &PendingDecision{
		WarrantID:   w.ID,
		AccepteerID: w.AccepteerID,
		DeadTier:    dead,
		Amount:      amount,
		DecidedTick: now,
	}
	m.dirty = true
	m.audit(AuditEntry{Tick: now, Actor: w.AccepteerID, Action: "WARRANT_DELIVERY_READY", WarrantID: w.ID, Amount: amount})
	m.notify(now, "WARRANT_DELIVERY", fmt.Sprintf("%s delivered on warrant %s and wants %d silver. Pay or refuse.", w.AccepteerID, w.ID, amount), w.ID)
}

// runAccepted is phase 5: warrants the player accepted. Inactive targets
// terminate the warrant, fail the linked quest, cost goodwill with the
// issuer, and sometimes provoke a retaliatory warrant against the player.
func (m *Manager) runAccepted(now int64) {
	reg := m.deps.Subjects
	playerID := m.deps.Factions.PlayerID()
	for i := len(m.accepted) - 1; i >= 0; i-- {
		w := m.accepted[i]
		if w.IsActive(reg) {
			continue
		}
		issuer := w.IssuerID
		m.accepted = append(m.accepted[:i], m.accepted[i+1:]...)
		m.conclude(w, StatusFailed, func() {
			if w.QuestHandle != "" && m.deps.Quests != nil {
				m.deps.Quests.End(w.QuestHandle, QuestFail)
			}
			m.deps.Factions.AffectGoodwill(issuer, playerID, -m.rules.FailedByPlayerGoodwill)
		})
		m.audit(AuditEntry{Tick: now, Actor: playerID, Action: "WARRANT_FAILED", WarrantID: w.ID, FactionID: issuer, Amount: -m.rules.FailedByPlayerGoodwill})
		m.notify(now, "WARRANT_FAILED", fmt.Sprintf("Warrant %s can no longer be completed. %s is displeased.", w.ID, issuer), w.ID)

		if m.rollChance(m.rules.RetaliationChance, now, saltRetaliate, hashID(w.ID)) {
			m.retaliate(now, issuer, w.ID)
		}
	}
}

// retaliate issues a fresh warrant on a random player-owned subject,
// attributed to the slighted issuer.
func (m *Manager) retaliate(now int64, issuerID, causeID string) {
	owned := m.deps.Subjects.OwnedBy(m.deps.Factions.PlayerID())
	if len(owned) == 0 {
		return
	}
	target := owned[int(m.roll(now, saltRetaliateTarget, hashID(causeID))%uint64(len(owned)))]
	w := m.buildBeingWarrant(now, hashID(causeID), target, issuerID)
	m.available = append(m.available, w)
	m.dirty = true
	m.audit(AuditEntry{Tick: now, Actor: issuerID, Action: "WARRANT_RETALIATION", WarrantID: w.ID, SubjectID: target.ID})
	m.notify(now, "WARRANT_RETALIATION", fmt.Sprintf("%s has put a warrant on %s.", issuerID, target.Label), w.ID)
}

package warrants

import "fmt"

// runMaintenance is the throttled phase 1 sweep: dangling-target purges,
// expiration, and mean-time-between-events warrant generation.
func (m *Manager) runMaintenance(now int64) {
	m.purgeDangling(now)
	m.expireAvailable(now)
	m.expireAccepted(now)

	if m.mtbFires(m.rules.WarrantGenMTBDays, m.rules.MaintenanceEvery, now, saltGen, 0) {
		w := m.makeRandomWarrant(now, 0)
		if w == nil {
			// No eligible issuer this sweep; retried on the next one.
			return
		}
		if !m.canPlayerReceive(w) {
			m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_GEN_SKIPPED", WarrantID: w.ID, Reason: "reward implausible for player wealth"})
			return
		}
		m.available = append(m.available, w)
		m.dirty = true
		m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_POSTED", WarrantID: w.ID, FactionID: w.IssuerID, SubjectID: w.TargetID})
		m.notify(now, "WARRANT_POSTED", fmt.Sprintf("New warrant %s posted by %s.", w.ID, w.IssuerID), w.ID)
	}
}

// purgeDangling drops warrants whose target became permanently
// unresolvable, from every queue, with terminal side effects suppressed.
// Warrants that merely went inactive (dead target with no death reward,
// lost corpse) are dropped from the non-accepted queues here; accepted
// warrants are handled in phase 5 where the issuer penalty applies.
func (m *Manager) purgeDangling(now int64) {
	reg := m.deps.Subjects
	for _, queue := range []*[]*Warrant{&m.available, &m.givenOut, &m.taken, &m.accepted} {
		q := *queue
		for i := len(q) - 1; i >= 0; i-- {
			w := q[i]
			s := reg.Get(w.TargetID)
			if s != nil && s.IsValid() {
				continue
			}
			m.suppressEffects(w)
			if w.QuestHandle != "" && m.deps.Quests != nil {
				m.deps.Quests.End(w.QuestHandle, QuestFail)
			}
			m.purgeAll(w)
			m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_DANGLING_PURGED", WarrantID: w.ID, SubjectID: w.TargetID})
		}
	}

	// Inactive (but not dangling) pursuit warrants are pointless: the
	// target died with no death reward on offer, or its corpse is gone.
	for _, queue := range []*[]*Warrant{&m.available, &m.givenOut, &m.taken} {
		q := *queue
		for i := len(q) - 1; i >= 0; i-- {
			w := q[i]
			if w.IsActive(reg) {
				continue
			}
			m.suppressEffects(w)
			m.purgeAll(w)
			m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_VOIDED", WarrantID: w.ID, SubjectID: w.TargetID})
			m.notify(now, "WARRANT_VOIDED", fmt.Sprintf("Warrant %s is void: the target can no longer be brought in.", w.ID), w.ID)
		}
	}
}

func (m *Manager) expireAvailable(now int64) {
	ttl := int64(m.rules.ExpiryDays) * int64(m.cfg.DayTicks)
	for i := len(m.available) - 1; i >= 0; i-- {
		w := m.available[i]
		if w.CreatedTick < 0 || now < w.CreatedTick+ttl {
			continue
		}
		// Never engaged: removal only, no side effect set to fire.
		m.suppressEffects(w)
		w.Status = StatusExpired
		m.available = append(m.available[:i], m.available[i+1:]...)
		m.dirty = true
		m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_EXPIRED", WarrantID: w.ID})
	}
}

func (m *Manager) expireAccepted(now int64) {
	ttl := int64(m.rules.ExpiryDays) * int64(m.cfg.DayTicks)
	for i := len(m.accepted) - 1; i >= 0; i-- {
		w := m.accepted[i]
		if w.AcceptedTick < 0 || now < w.AcceptedTick+ttl {
			continue
		}
		issuer := w.IssuerID
		m.conclude(w, StatusExpired, func() {
			if w.QuestHandle != "" && m.deps.Quests != nil {
				m.deps.Quests.End(w.QuestHandle, QuestFail)
			}
			m.deps.Factions.AffectGoodwill(issuer, m.deps.Factions.PlayerID(), -m.rules.FailedByPlayerGoodwill)
		})
		m.accepted = append(m.accepted[:i], m.accepted[i+1:]...)
		m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_EXPIRED", WarrantID: w.ID, FactionID: issuer, Amount: -m.rules.FailedByPlayerGoodwill})
		m.notify(now, "WARRANT_EXPIRED", fmt.Sprintf("Warrant %s expired before you brought the target in. %s is displeased.", w.ID, issuer), w.ID)
	}
}

// runThreatEscalation is phase 2: warrants on player-owned subjects draw
// bounty hunters on a mean-time-between-events roll. A collaborator call,
// not a queue transition.
func (m *Manager) runThreatEscalation(now int64) {
	if m.deps.Incidents == nil {
		return
	}
	for _, w := range m.available {
		if !w.IsThreatForPlayer(m.deps.Subjects, m.deps.Factions) {
			continue
		}
		if !m.mtbFires(m.rules.BountyRaidMTBDays, 1, now, saltThreat, hashID(w.ID)) {
			continue
		}
		m.deps.Incidents.TriggerRaid(RaidRequest{
			Kind:      RaidBountyHunters,
			FactionID: w.IssuerID,
			TargetID:  w.TargetID,
			WarrantID: w.ID,
			Scale:     m.rules.BountyRaidScale,
		})
		m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "BOUNTY_RAID", WarrantID: w.ID, FactionID: w.IssuerID, SubjectID: w.TargetID})
		m.notify(now, "BOUNTY_RAID", fmt.Sprintf("Bounty hunters are coming for the target of warrant %s.", w.ID), w.ID)
	}
}

// canPlayerReceive is the affordability predicate for generated warrants:
// warrants on the player's own subjects always show, player-issued ones
// never come back, and with reward scaling on, rewards implausible next to
// the player's wealth are rejected.
func (m *Manager) canPlayerReceive(w *Warrant) bool {
	reg := m.deps.Subjects
	if s := reg.Get(w.TargetID); s != nil {
		being := reg.inner(s)
		if being.FactionID != "" && being.FactionID == m.deps.Factions.PlayerID() {
			return true
		}
	}
	if w.IssuerID == m.deps.Factions.PlayerID() {
		return false
	}
	if m.rules.RewardScaling && m.deps.Wealth != nil {
		wealth := float64(m.deps.Wealth.PlayerWealth())
		return wealth*m.rules.RewardMaxWealthFraction >= float64(w.MaxReward())
	}
	return true
}

// makeRandomWarrant synthesizes one procedural warrant: an eligible issuer,
// a generated (or colonist) target, and rewards proportional to market
// value. Returns nil when no issuer is eligible this tick.
func (m *Manager) makeRandomWarrant(now int64, n int) *Warrant {
	issuer := m.deps.Factions.PickEligible("", m.roll(now, saltGenIssuer, n))
	if issuer == nil {
		return nil
	}

	reg := m.deps.Subjects
	playerID := m.deps.Factions.PlayerID()

	if m.rules.EnableColonists && m.rollChance(m.rules.ColonistChance, now, saltGenColonist, n) {
		owned := reg.OwnedBy(playerID)
		if len(owned) > 0 {
			target := owned[int(m.roll(now, saltGenTarget, n)%uint64(len(owned)))]
			return m.buildBeingWarrant(now, n, target, issuer.ID)
		}
	}

	kinds := []Kind{KindPerson}
	if m.rules.EnableAnimals {
		kinds = append(kinds, KindAnimal)
	}
	if m.rules.EnableArtifacts {
		kinds = append(kinds, KindArtifact)
	}
	kind := kinds[int(m.roll(now, saltGenKind, n)%uint64(len(kinds)))]

	if m.deps.Factory == nil {
		return nil
	}
	switch kind {
	case KindArtifact:
		target := m.deps.Factory.RandomArtifact(m.roll(now, saltGenTarget, n))
		if target == nil {
			return nil
		}
		w := &Warrant{
			ID:          m.newWarrantID(),
			Kind:        KindArtifact,
			TargetID:    target.ID,
			IssuerID:    issuer.ID,
			Status:      StatusAvailable,
			Reward:      int(float64(target.MarketValue) * m.rangeFloat(0.5, 2.0, now, saltGenReward, n)),
			CreatedTick: now,
			AcceptedTick: -1,
			DeadlineTick: -1,
		}
		return w
	case KindAnimal:
		target := m.deps.Factory.RandomAnimal(m.roll(now, saltGenTarget, n))
		if target == nil {
			return nil
		}
		return m.buildBeingWarrant(now, n, target, issuer.ID)
	default:
		target := m.deps.Factory.RandomPerson(m.roll(now, saltGenTarget, n))
		if target == nil {
			return nil
		}
		return m.buildBeingWarrant(now, n, target, issuer.ID)
	}
}

func (m *Manager) buildBeingWarrant(now int64, n int, target *Subject, issuerID string) *Warrant {
	kind := KindPerson
	if target.Kind == SubjectAnimal {
		kind = KindAnimal
	}
	living := int(float64(target.MarketValue) * m.rangeFloat(0.5, 2.0, now, saltGenReward, n))
	dead := 0
	if !m.rollChance(0.3, now, saltGenDeadZero, n) {
		dead = int(float64(living) * m.rangeFloat(0.3, 0.7, now, saltGenDeadShare, n))
	}
	w := &Warrant{
		ID:           m.newWarrantID(),
		Kind:         kind,
		TargetID:     target.ID,
		IssuerID:     issuerID,
		Status:       StatusAvailable,
		RewardLiving: living,
		RewardDead:   dead,
		CreatedTick:  now,
		AcceptedTick: -1,
		DeadlineTick: -1,
	}
	if kind == KindPerson && m.deps.Factory != nil {
		w.Reason = m.deps.Factory.ReasonFor(m.roll(now, saltGenReason, n) ^ uint64(hashID(w.ID)))
	}
	return w
}

package warrants

type Kind string

const (
	KindPerson   Kind = "PERSON"
	KindAnimal   Kind = "ANIMAL"
	KindArtifact Kind = "ARTIFACT"
)

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusAccepted  Status = "ACCEPTED"
	StatusGivenOut  Status = "GIVEN_OUT"
	StatusTaken     Status = "TAKEN"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

// Warrant is one bounty/retrieval contract. The variant tag selects which
// payload fields apply: persons and animals use the living/dead reward
// split, artifacts use the flat Reward. Warrants are only ever mutated by
// the Manager that issued them.
type Warrant struct {
	ID          string
	Kind        Kind
	TargetID    string
	IssuerID    string
	AccepteerID string // "" until a third party takes the contract
	Status      Status

	Reason string // persons: what the target is wanted for

	RewardLiving int
	RewardDead   int
	Reward       int // artifacts only

	CreatedTick  int64
	AcceptedTick int64
	DeadlineTick int64

	QuestHandle string

	// Terminal side effects (payout or relationship penalty) fire at most
	// once, even when a warrant is purged defensively afterwards.
	effectsFired bool
}

// MaxReward is the largest amount the warrant can pay out, used for
// affordability checks.
func (w *Warrant) MaxReward() int {
	switch w.Kind {
	case KindArtifact:
		return w.Reward
	default:
		if w.RewardDead > w.RewardLiving {
			return w.RewardDead
		}
		return w.RewardLiving
	}
}

// rewardRatio is reward over target market value, the raw driver for both
// acceptance and success odds. Zero when the target is gone or worthless.
func (w *Warrant) rewardRatio(reg *Registry) float64 {
	s := reg.Get(w.TargetID)
	if s == nil || s.MarketValue <= 0 {
		return 0
	}
	return float64(w.MaxReward()) / float64(s.MarketValue)
}

// AcceptChance is the probability, over the reference acceptance window,
// that a third party picks up this warrant. Recomputed on every read; a
// reward edit is reflected immediately. Clamped to [0,1].
func (w *Warrant) AcceptChance(reg *Registry) float64 {
	return clamp01(w.rewardRatio(reg))
}

// SuccessChance is the probability the accepteer succeeds once the
// completion deadline is reached. Same ratio as acceptance, same clamp.
func (w *Warrant) SuccessChance(reg *Registry) float64 {
	return clamp01(w.rewardRatio(reg))
}

// IsActive reports whether the warrant can still be completed. For beings
// it also migrates the target reference from the living body to its corpse
// when one exists, keeping the warrant id stable.
func (w *Warrant) IsActive(reg *Registry) bool {
	s := reg.Get(w.TargetID)
	if s == nil {
		return false
	}
	if w.Kind == KindArtifact {
		return !s.Destroyed
	}

	being := reg.inner(s)
	if being == nil {
		return false
	}
	if being.Dead && w.RewardDead == 0 {
		return false
	}
	if being.CorpseID != "" {
		corpse := reg.Get(being.CorpseID)
		if corpse != nil {
			if w.TargetID != corpse.ID {
				w.TargetID = corpse.ID
			}
			if w.RewardDead > 0 && !corpse.Spawned && !corpse.Held {
				// Corpse decayed or otherwise unreachable.
				return false
			}
			return !corpse.Destroyed
		}
	}
	return !being.Destroyed
}

// IsThreatForPlayer reports whether the warrant targets something the
// player owns.
func (w *Warrant) IsThreatForPlayer(reg *Registry, factions *FactionDirectory) bool {
	s := reg.Get(w.TargetID)
	if s == nil {
		return false
	}
	being := reg.inner(s)
	return being.FactionID != "" && being.FactionID == factions.PlayerID()
}

// rewardTierFor picks the amount owed for a delivered physical form:
// corpse or dead being pays the dead tier, a living being the living tier,
// an artifact the flat reward.
func (w *Warrant) rewardTierFor(delivered *Subject) int {
	if w.Kind == KindArtifact {
		return w.Reward
	}
	if delivered != nil && (delivered.Kind == SubjectCorpse || delivered.Dead) {
		return w.RewardDead
	}
	return w.RewardLiving
}

// matchesDelivery validates that a handed-in subject satisfies the warrant:
// the exact target, its corpse, or - for tame-animal warrants - any living
// tamed animal of the wanted species.
func (w *Warrant) matchesDelivery(reg *Registry, delivered *Subject) bool {
	if delivered == nil || delivered.Destroyed {
		return false
	}
	target := reg.Get(w.TargetID)
	if target == nil {
		return false
	}
	if delivered.ID == target.ID {
		return true
	}
	// Corpse of the wanted being.
	if delivered.Kind == SubjectCorpse && (delivered.InnerID == target.ID || delivered.ID == target.CorpseID) {
		return true
	}
	// Living target whose reference already migrated to the corpse.
	if target.Kind == SubjectCorpse && target.InnerID == delivered.ID {
		return true
	}
	if w.Kind == KindAnimal {
		want := reg.inner(target)
		return delivered.Kind == SubjectAnimal && delivered.Tamed && !delivered.Dead &&
			want != nil && delivered.Species == want.Species
	}
	return false
}

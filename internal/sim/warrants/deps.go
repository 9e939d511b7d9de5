package warrants

import "warrantsim.ai/internal/protocol"

// Collaborator capabilities. The engine owns the warrant lifecycle and
// nothing else: subjects, quests, incidents and wealth all live host-side
// behind these interfaces.

// SubjectFactory procedurally creates and registers a new subject for a
// generated warrant. Implementations must be deterministic in the roll.
type SubjectFactory interface {
	RandomPerson(roll uint64) *Subject
	RandomAnimal(roll uint64) *Subject
	RandomArtifact(roll uint64) *Subject
	ReasonFor(roll uint64) string
}

type QuestOutcome string

const (
	QuestSuccess QuestOutcome = "SUCCESS"
	QuestFail    QuestOutcome = "FAIL"
)

type QuestRequest struct {
	WarrantID    string
	Kind         Kind
	TargetID     string
	TargetLabel  string
	Reason       string
	AskerID      string // issuing faction
	RewardLiving int
	RewardDead   int
	Reward       int
}

// QuestLauncher turns an accepted warrant into a playable encounter and is
// told how the encounter ended.
type QuestLauncher interface {
	Launch(req QuestRequest) (handle string, err error)
	End(handle string, outcome QuestOutcome)
}

type RaidKind string

const (
	RaidBountyHunters RaidKind = "BOUNTY_HUNTERS" // someone comes for a player-owned target
	RaidRetaliation   RaidKind = "RETALIATION"    // fallout from a refused payout
)

type RaidRequest struct {
	Kind      RaidKind
	FactionID string
	TargetID  string // subject the raid is about, if any
	WarrantID string
	Scale     float64
}

// IncidentSink receives hostile-incident requests. Triggering a raid is a
// collaborator call, never a queue transition.
type IncidentSink interface {
	TriggerRaid(req RaidRequest)
}

// WealthProvider reports the player's total wealth for the affordability
// predicate on generated warrants.
type WealthProvider interface {
	PlayerWealth() int
}

type Notice struct {
	Tick      int64  `json:"tick"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	WarrantID string `json:"warrant_id,omitempty"`
}

// Notifier receives player-facing notifications (may be nil).
type Notifier interface {
	Notify(n Notice)
}

// TickLogger writes one entry per tick that processed operations.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// AuditLogger records every lifecycle decision the engine makes.
type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick   int64        `json:"tick"`
	Ops    []RecordedOp `json:"ops,omitempty"`
	Digest string       `json:"digest"`
}

type RecordedOp struct {
	ClientID string          `json:"client_id"`
	Act      protocol.ActMsg `json:"act"`
}

type AuditEntry struct {
	Tick      int64  `json:"tick"`
	Actor     string `json:"actor"` // faction id or "ENGINE"
	Action    string `json:"action"`
	WarrantID string `json:"warrant_id,omitempty"`
	FactionID string `json:"faction_id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Amount    int    `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type Deps struct {
	Subjects  *Registry
	Factions  *FactionDirectory
	Stock     *Stock
	Factory   SubjectFactory
	Quests    QuestLauncher
	Incidents IncidentSink
	Wealth    WealthProvider
	Notifier  Notifier // optional
}

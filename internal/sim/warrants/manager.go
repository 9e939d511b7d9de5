package warrants

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"warrantsim.ai/internal/persistence/snapshot"
	"warrantsim.ai/internal/protocol"
)

type Config struct {
	ID         string
	Seed       int64
	TickRateHz int
	DayTicks   int

	SnapshotEveryTicks int
}

// Rules is the configuration surface of the lifecycle engine. Values are
// mapped from tuning.yaml in cmd wiring.
type Rules struct {
	EnableAnimals   bool
	EnableArtifacts bool
	EnableColonists bool
	ColonistChance  float64

	// Relationship damage when a warrant fails: one magnitude for warrants
	// the player accepted and failed, another for third parties failing a
	// player-issued warrant.
	FailedByPlayerGoodwill     int
	FailedByThirdPartyGoodwill int
	RefusedPayoutGoodwill      int
	IssueOnNonHostileGoodwill  int

	WarrantGenMTBDays float64
	BountyRaidMTBDays float64
	BountyRaidScale   float64

	RewardScaling           bool
	RewardMaxWealthFraction float64

	ExpiryDays         int
	AcceptRefDays      int
	DeadlineMinDays    int
	DeadlineMaxDays    int
	MaxPlayerWarrants  int
	RetaliationChance  float64
	MaintenanceEvery   int64 // ticks between maintenance sweeps
	PopulateMin        int
	PopulateMax        int
}

func DefaultRules() Rules {
	return Rules{
		EnableAnimals:   true,
		EnableArtifacts: true,
		EnableColonists: true,
		ColonistChance:  0.05,

		FailedByPlayerGoodwill:     30,
		FailedByThirdPartyGoodwill: 20,
		RefusedPayoutGoodwill:      75,
		IssueOnNonHostileGoodwill:  80,

		WarrantGenMTBDays: 7,
		BountyRaidMTBDays: 5,
		BountyRaidScale:   1.0,

		RewardScaling:           true,
		RewardMaxWealthFraction: 0.05,

		ExpiryDays:        15,
		AcceptRefDays:     7,
		DeadlineMinDays:   3,
		DeadlineMaxDays:   20,
		MaxPlayerWarrants: 5,
		RetaliationChance: 0.5,
		MaintenanceEvery:  250,
		PopulateMin:       3,
		PopulateMax:       5,
	}
}

// PendingDecision is the suspended pay-or-refuse choice from a successful
// third-party pursuit. The warrant stays in the taken queue until the
// player resolves it; there is no timeout.
type PendingDecision struct {
	WarrantID   string
	AccepteerID string
	DeadTier    bool
	Amount      int
	DecidedTick int64
}

type OpEnvelope struct {
	ClientID string
	Act      protocol.ActMsg
}

type WatchRequest struct {
	Name string
	Out  chan []byte
	Resp chan WatchResponse
}

type WatchResponse struct {
	ClientID string
	Welcome  protocol.WelcomeMsg
	Board    protocol.BoardMsg
}

type clientState struct {
	Out chan []byte
}

// Manager owns the four warrant queues and is the only component with
// transition authority. Single-threaded: all state is touched only from
// the loop goroutine (or directly in tests).
type Manager struct {
	cfg   Config
	rules Rules
	deps  Deps

	tick atomic.Int64

	available []*Warrant
	givenOut  []*Warrant
	taken     []*Warrant
	accepted  []*Warrant

	pending map[string]*PendingDecision

	nextWarrantNum uint64
	initialized    bool

	clients       map[string]*clientState
	nextClientNum uint64

	inbox   chan OpEnvelope
	watch   chan WatchRequest
	unwatch chan string
	stop    chan struct{}

	tickLogger   TickLogger
	auditLogger  AuditLogger
	snapshotSink chan<- snapshot.BoardV1

	dirty   bool
	notices []Notice
}

func New(cfg Config, rules Rules, deps Deps) (*Manager, error) {
	if cfg.DayTicks <= 0 {
		return nil, fmt.Errorf("day ticks must be positive")
	}
	if deps.Subjects == nil || deps.Factions == nil || deps.Stock == nil {
		return nil, fmt.Errorf("subjects, factions and stock are required")
	}
	m := &Manager{
		cfg:     cfg,
		rules:   rules,
		deps:    deps,
		pending: map[string]*PendingDecision{},
		clients: map[string]*clientState{},
		inbox:   make(chan OpEnvelope, 256),
		watch:   make(chan WatchRequest, 16),
		unwatch: make(chan string, 16),
		stop:    make(chan struct{}),
	}
	return m, nil
}

func (m *Manager) SetTickLogger(l TickLogger)                   { m.tickLogger = l }
func (m *Manager) SetAuditLogger(l AuditLogger)                 { m.auditLogger = l }
func (m *Manager) SetSnapshotSink(ch chan<- snapshot.BoardV1)   { m.snapshotSink = ch }

func (m *Manager) Inbox() chan<- OpEnvelope   { return m.inbox }
func (m *Manager) Watch() chan<- WatchRequest { return m.watch }
func (m *Manager) Unwatch() chan<- string     { return m.unwatch }

func (m *Manager) CurrentTick() int64 { return m.tick.Load() }

func (m *Manager) newWarrantID() string {
	m.nextWarrantNum++
	return fmt.Sprintf("W%06d", m.nextWarrantNum)
}

// Start populates the board once on a fresh game. Safe to call after a
// snapshot resume; the initialized flag suppresses re-population.
func (m *Manager) Start() {
	if m.initialized {
		return
	}
	m.initialized = true
	now := m.tick.Load()
	count := m.rangeInt(m.rules.PopulateMin, m.rules.PopulateMax, now, saltPopulate, 0)
	for i := 0; i < count; i++ {
		w := m.makeRandomWarrant(now, i)
		if w == nil {
			continue
		}
		if !m.canPlayerReceive(w) {
			continue
		}
		m.available = append(m.available, w)
		m.audit(AuditEntry{Tick: now, Actor: actorEngine, Action: "WARRANT_POSTED", WarrantID: w.ID, FactionID: w.IssuerID, SubjectID: w.TargetID})
	}
	m.dirty = true
}

// Run drives the engine at the configured tick rate until the context is
// cancelled or Stop is called.
func (m *Manager) Run(ctx context.Context) error {
	hz := m.cfg.TickRateHz
	if hz <= 0 {
		hz = 5
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	var pendingOps []OpEnvelope
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case req := <-m.watch:
			m.handleWatch(req)
		case id := <-m.unwatch:
			delete(m.clients, id)
		case env := <-m.inbox:
			pendingOps = append(pendingOps, env)
		case <-ticker.C:
			m.runTick(pendingOps)
			pendingOps = pendingOps[:0]
		}
	}
}

func (m *Manager) Stop() { close(m.stop) }

// StepOnce advances the engine exactly one tick with the given recorded
// operations and returns the resulting tick and state digest. Used by the
// replay verifier; equal seeds and inputs must yield equal digests.
func (m *Manager) StepOnce(ops []RecordedOp) (int64, string) {
	envs := make([]OpEnvelope, 0, len(ops))
	for _, op := range ops {
		envs = append(envs, OpEnvelope{ClientID: op.ClientID, Act: op.Act})
	}
	m.runTick(envs)
	return m.tick.Load(), m.digest()
}

// runTick advances the engine one tick: player operations first, then the
// five scheduler phases in their fixed order.
func (m *Manager) runTick(ops []OpEnvelope) {
	now := m.tick.Add(1)

	for _, env := range ops {
		res := m.applyOp(now, env.Act)
		m.sendTo(env.ClientID, res)
	}

	if m.rules.MaintenanceEvery > 0 && now%m.rules.MaintenanceEvery == 0 {
		m.runMaintenance(now)
	}
	m.runThreatEscalation(now)
	m.runGivenOut(now)
	m.runTaken(now)
	m.runAccepted(now)

	m.flushNotices(now)
	if m.dirty {
		m.broadcastBoard(now)
		m.dirty = false
	}

	if m.tickLogger != nil {
		entry := TickLogEntry{Tick: now, Digest: m.digest()}
		for _, env := range ops {
			entry.Ops = append(entry.Ops, RecordedOp{ClientID: env.ClientID, Act: env.Act})
		}
		if err := m.tickLogger.WriteTick(entry); err != nil {
			_ = err
		}
	}
	if m.snapshotSink != nil && m.cfg.SnapshotEveryTicks > 0 && now%int64(m.cfg.SnapshotEveryTicks) == 0 {
		select {
		case m.snapshotSink <- m.ExportSnapshot():
		default:
		}
	}
}

const actorEngine = "ENGINE"

func (m *Manager) audit(e AuditEntry) {
	if m.auditLogger == nil {
		return
	}
	if err := m.auditLogger.WriteAudit(e); err != nil {
		_ = err
	}
}

func (m *Manager) notify(now int64, kind, text, warrantID string) {
	m.notices = append(m.notices, Notice{Tick: now, Kind: kind, Text: text, WarrantID: warrantID})
}

func (m *Manager) flushNotices(now int64) {
	for _, n := range m.notices {
		if m.deps.Notifier != nil {
			m.deps.Notifier.Notify(n)
		}
		m.sendToAll(protocol.NoticeMsg{
			Type:            protocol.TypeNotice,
			ProtocolVersion: protocol.Version,
			Tick:            n.Tick,
			Kind:            n.Kind,
			Text:            n.Text,
			WarrantID:       n.WarrantID,
		})
	}
	m.notices = m.notices[:0]
	_ = now
}

// conclude moves a warrant to a terminal status and fires its one-time
// side effect set exactly once.
func (m *Manager) conclude(w *Warrant, status Status, effects func()) {
	w.Status = status
	if effects != nil && !w.effectsFired {
		w.effectsFired = true
		effects()
	}
	m.dirty = true
}

// suppressEffects marks the side effect set as spent without firing it,
// used for dangling-target purges to avoid double-penalizing relations.
func (m *Manager) suppressEffects(w *Warrant) { w.effectsFired = true }

func removeWarrant(queue *[]*Warrant, w *Warrant) bool {
	q := *queue
	for i := len(q) - 1; i >= 0; i-- {
		if q[i] == w {
			*queue = append(q[:i], q[i+1:]...)
			return true
		}
	}
	return false
}

// purgeAll removes a warrant from every queue and any pending decision.
// Idempotent by construction.
func (m *Manager) purgeAll(w *Warrant) {
	removeWarrant(&m.available, w)
	removeWarrant(&m.givenOut, w)
	removeWarrant(&m.taken, w)
	removeWarrant(&m.accepted, w)
	delete(m.pending, w.ID)
	m.dirty = true
}

func (m *Manager) findWarrant(id string) (*Warrant, *[]*Warrant) {
	for _, queue := range []*[]*Warrant{&m.available, &m.givenOut, &m.taken, &m.accepted} {
		for _, w := range *queue {
			if w.ID == id {
				return w, queue
			}
		}
	}
	return nil, nil
}

// digest hashes the board state for the tick log; equal seeds and inputs
// must yield equal digests.
func (m *Manager) digest() string {
	h := sha256.New()
	writeQueue := func(name string, q []*Warrant) {
		ids := make([]string, 0, len(q))
		for _, w := range q {
			ids = append(ids, fmt.Sprintf("%s:%s:%s:%d", w.ID, w.Status, w.AccepteerID, w.DeadlineTick))
		}
		sort.Strings(ids)
		fmt.Fprintf(h, "%s|", name)
		for _, id := range ids {
			fmt.Fprintf(h, "%s|", id)
		}
	}
	writeQueue("avail", m.available)
	writeQueue("given", m.givenOut)
	writeQueue("taken", m.taken)
	writeQueue("accept", m.accepted)
	pend := make([]string, 0, len(m.pending))
	for id, d := range m.pending {
		pend = append(pend, fmt.Sprintf("%s:%s:%d:%t:%d", id, d.AccepteerID, d.Amount, d.DeadTier, d.DecidedTick))
	}
	sort.Strings(pend)
	fmt.Fprintf(h, "pend|")
	for _, p := range pend {
		fmt.Fprintf(h, "%s|", p)
	}
	fmt.Fprintf(h, "n:%d", m.nextWarrantNum)
	return hex.EncodeToString(h.Sum(nil))
}

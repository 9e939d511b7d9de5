package warrants

import (
	"encoding/json"
	"fmt"
	"sort"

	"warrantsim.ai/internal/protocol"
)

// handleWatch registers a new client and replies with WELCOME plus the
// current board so the client never starts from a blank screen.
func (m *Manager) handleWatch(req WatchRequest) {
	m.nextClientNum++
	id := fmt.Sprintf("C%04d", m.nextClientNum)
	m.clients[id] = &clientState{Out: req.Out}
	req.Resp <- WatchResponse{
		ClientID: id,
		Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			ClientID:        id,
			BoardParams: protocol.BoardParams{
				TickRateHz: m.cfg.TickRateHz,
				DayTicks:   m.cfg.DayTicks,
				Seed:       m.cfg.Seed,
			},
		},
		Board: m.boardMsg(m.tick.Load()),
	}
}

func (m *Manager) sendTo(clientID string, msg any) {
	c := m.clients[clientID]
	if c == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.Out <- b:
	default:
		// Slow consumer; it will catch up on the next board broadcast.
	}
}

func (m *Manager) sendToAll(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, c := range m.clients {
		select {
		case c.Out <- b:
		default:
		}
	}
}

func (m *Manager) broadcastBoard(now int64) {
	m.sendToAll(m.boardMsg(now))
}

func (m *Manager) boardMsg(now int64) protocol.BoardMsg {
	msg := protocol.BoardMsg{
		Type:            protocol.TypeBoard,
		ProtocolVersion: protocol.Version,
		Tick:            now,
		Available:       m.viewQueue(now, m.available),
		GivenOut:        m.viewQueue(now, m.givenOut),
		Taken:           m.viewQueue(now, m.taken),
		Accepted:        m.viewQueue(now, m.accepted),
		Silver:          m.deps.Stock.Total(),
	}
	if len(m.pending) > 0 {
		for _, d := range m.pending {
			msg.Pending = append(msg.Pending, protocol.PendingView{
				WarrantID:   d.WarrantID,
				AccepteerID: d.AccepteerID,
				DeadTier:    d.DeadTier,
				Amount:      d.Amount,
				DecidedTick: d.DecidedTick,
			})
		}
		sort.Slice(msg.Pending, func(i, j int) bool { return msg.Pending[i].WarrantID < msg.Pending[j].WarrantID })
	}
	return msg
}

func (m *Manager) viewQueue(now int64, q []*Warrant) []protocol.WarrantView {
	out := make([]protocol.WarrantView, 0, len(q))
	for _, w := range q {
		out = append(out, m.viewWarrant(now, w))
	}
	return out
}

func (m *Manager) viewWarrant(now int64, w *Warrant) protocol.WarrantView {
	v := protocol.WarrantView{
		ID:           w.ID,
		Kind:         string(w.Kind),
		Status:       string(w.Status),
		TargetID:     w.TargetID,
		IssuerID:     w.IssuerID,
		AccepteerID:  w.AccepteerID,
		Reason:       w.Reason,
		RewardLiving: w.RewardLiving,
		RewardDead:   w.RewardDead,
		Reward:       w.Reward,
		CreatedTick:  w.CreatedTick,
		AcceptedTick: w.AcceptedTick,
		DeadlineTick: w.DeadlineTick,
	}
	if s := m.deps.Subjects.Get(w.TargetID); s != nil {
		v.TargetLabel = s.Label
	}

	ttl := int64(m.rules.ExpiryDays) * int64(m.cfg.DayTicks)
	switch w.Status {
	case StatusAvailable:
		if w.CreatedTick >= 0 {
			if left := w.CreatedTick + ttl - now; left > 0 {
				v.ExpiresInTicks = left
			}
		}
	case StatusAccepted:
		if w.AcceptedTick >= 0 {
			if left := w.AcceptedTick + ttl - now; left > 0 {
				v.ExpiresInTicks = left
			}
		}
	case StatusGivenOut:
		// Expected wait until some faction takes the contract.
		if p := w.AcceptChance(m.deps.Subjects); p > 0 {
			v.ApproxAcceptTicks = int64(float64(m.rules.AcceptRefDays) * float64(m.cfg.DayTicks) / p)
		}
	case StatusTaken:
		if d, ok := m.pending[w.ID]; ok {
			v.InsufficientPay = m.deps.Stock.Total() < d.Amount
		}
	}
	return v
}

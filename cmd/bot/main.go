package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"warrantsim.ai/internal/protocol"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name       = flag.String("name", "bot", "client name")
		autoAccept = flag.Bool("auto_accept", false, "accept the cheapest available warrant when idle")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	busy := false
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME client_id=%s tick_rate=%d day_ticks=%d seed=%d",
				w.ClientID, w.BoardParams.TickRateHz, w.BoardParams.DayTicks, w.BoardParams.Seed)

		case protocol.TypeBoard:
			var b protocol.BoardMsg
			if err := json.Unmarshal(msg, &b); err != nil {
				continue
			}
			logger.Printf("BOARD tick=%d available=%d given_out=%d taken=%d accepted=%d pending=%d silver=%d",
				b.Tick, len(b.Available), len(b.GivenOut), len(b.Taken), len(b.Accepted), len(b.Pending), b.Silver)
			if *autoAccept && !busy {
				if w := cheapestAvailable(&b); w != nil {
					busy = true
					act := protocol.ActMsg{
						Type:            protocol.TypeAct,
						ProtocolVersion: protocol.Version,
						Op:              protocol.OpAccept,
						WarrantID:       w.ID,
					}
					logger.Printf("accepting %s (%s, %s)", w.ID, w.Kind, w.TargetLabel)
					_ = conn.WriteJSON(act)
				}
			}

		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			if r.OK {
				logger.Printf("RESULT %s warrant=%s ok", r.Op, r.WarrantID)
			} else {
				logger.Printf("RESULT %s warrant=%s %s: %s", r.Op, r.WarrantID, r.Code, r.Message)
				busy = false
			}

		case protocol.TypeNotice:
			var n protocol.NoticeMsg
			if err := json.Unmarshal(msg, &n); err != nil {
				continue
			}
			logger.Printf("NOTICE [%s] %s", n.Kind, n.Text)
		}
	}
}

// cheapestAvailable picks the available warrant with the lowest top reward,
// skipping player-issued ones (a client cannot accept its own postings).
func cheapestAvailable(b *protocol.BoardMsg) *protocol.WarrantView {
	var best *protocol.WarrantView
	bestReward := 0
	for i := range b.Available {
		w := &b.Available[i]
		if w.IssuerID == "player" {
			continue
		}
		reward := w.Reward
		if w.RewardLiving > reward {
			reward = w.RewardLiving
		}
		if w.RewardDead > reward {
			reward = w.RewardDead
		}
		if reward <= 0 {
			continue
		}
		if best == nil || reward < bestReward {
			best = w
			bestReward = reward
		}
	}
	return best
}

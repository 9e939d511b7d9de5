package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ClientID        string      `json:"client_id"`
	BoardParams     BoardParams `json:"board_params"`
}

type BoardParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	DayTicks   int   `json:"day_ticks"`
	Seed       int64 `json:"seed"`
}

// ACT (client -> server): one warrant operation.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Op              string `json:"op"`

	WarrantID   string `json:"warrant_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	TargetID    string `json:"target_id,omitempty"`
	DeliveredID string `json:"delivered_id,omitempty"`
	Pay         bool   `json:"pay,omitempty"`
	Reason      string `json:"reason,omitempty"`

	RewardLiving int `json:"reward_living,omitempty"`
	RewardDead   int `json:"reward_dead,omitempty"`
	Reward       int `json:"reward,omitempty"`
}

// RESULT (server -> client): outcome of one ACT.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Op              string `json:"op"`
	WarrantID       string `json:"warrant_id,omitempty"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// BOARD (server -> client): full board state after a mutating tick.
type BoardMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            int64         `json:"tick"`
	Available       []WarrantView `json:"available"`
	GivenOut        []WarrantView `json:"given_out"`
	Taken           []WarrantView `json:"taken"`
	Accepted        []WarrantView `json:"accepted"`
	Pending         []PendingView `json:"pending,omitempty"`
	Silver          int           `json:"silver"`
}

type WarrantView struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	TargetID    string `json:"target_id"`
	TargetLabel string `json:"target_label,omitempty"`
	IssuerID    string `json:"issuer_id"`
	AccepteerID string `json:"accepteer_id,omitempty"`
	Reason      string `json:"reason,omitempty"`

	RewardLiving int `json:"reward_living,omitempty"`
	RewardDead   int `json:"reward_dead,omitempty"`
	Reward       int `json:"reward,omitempty"`

	CreatedTick  int64 `json:"created_tick"`
	AcceptedTick int64 `json:"accepted_tick"`
	DeadlineTick int64 `json:"deadline_tick"`

	// UI estimates.
	ExpiresInTicks    int64 `json:"expires_in_ticks,omitempty"`
	ApproxAcceptTicks int64 `json:"approx_accept_ticks,omitempty"`
	InsufficientPay   bool  `json:"insufficient_pay,omitempty"`
}

type PendingView struct {
	WarrantID   string `json:"warrant_id"`
	AccepteerID string `json:"accepteer_id"`
	DeadTier    bool   `json:"dead_tier"`
	Amount      int    `json:"amount"`
	DecidedTick int64  `json:"decided_tick"`
}

// NOTICE (server -> client): player-facing lifecycle notification.
type NoticeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int64  `json:"tick"`
	Kind            string `json:"kind"`
	Text            string `json:"text"`
	WarrantID       string `json:"warrant_id,omitempty"`
}

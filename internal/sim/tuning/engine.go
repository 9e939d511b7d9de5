package tuning

import "warrantsim.ai/internal/sim/warrants"

// EngineParams maps a loaded tuning file onto engine config and rules,
// keeping defaults for any knob the file leaves unset. The server and the
// replay verifier both go through here so a board replays under the same
// rules it ran with.
func EngineParams(t Tuning, boardID string, seed int64) (warrants.Config, warrants.Rules) {
	cfg := warrants.Config{
		ID:                 boardID,
		Seed:               seed,
		TickRateHz:         5,
		DayTicks:           60000,
		SnapshotEveryTicks: 5000,
	}
	if t.TickRateHz > 0 {
		cfg.TickRateHz = t.TickRateHz
	}
	if t.DayTicks > 0 {
		cfg.DayTicks = t.DayTicks
	}
	if t.SnapshotEveryTicks > 0 {
		cfg.SnapshotEveryTicks = t.SnapshotEveryTicks
	}

	r := warrants.DefaultRules()
	w := t.Warrants
	if w.EnableAnimals != nil {
		r.EnableAnimals = *w.EnableAnimals
	}
	if w.EnableArtifacts != nil {
		r.EnableArtifacts = *w.EnableArtifacts
	}
	if w.EnableColonists != nil {
		r.EnableColonists = *w.EnableColonists
	}
	if w.ColonistChance > 0 {
		r.ColonistChance = w.ColonistChance
	}
	if w.FailedByPlayerGoodwill > 0 {
		r.FailedByPlayerGoodwill = w.FailedByPlayerGoodwill
	}
	if w.FailedByThirdPartyGoodwill > 0 {
		r.FailedByThirdPartyGoodwill = w.FailedByThirdPartyGoodwill
	}
	if w.RefusedPayoutGoodwill > 0 {
		r.RefusedPayoutGoodwill = w.RefusedPayoutGoodwill
	}
	if w.IssueOnNonHostileGoodwill > 0 {
		r.IssueOnNonHostileGoodwill = w.IssueOnNonHostileGoodwill
	}
	if w.WarrantGenMTBDays > 0 {
		r.WarrantGenMTBDays = w.WarrantGenMTBDays
	}
	if w.BountyRaidMTBDays > 0 {
		r.BountyRaidMTBDays = w.BountyRaidMTBDays
	}
	if w.BountyRaidScale > 0 {
		r.BountyRaidScale = w.BountyRaidScale
	}
	if w.RewardScaling != nil {
		r.RewardScaling = *w.RewardScaling
	}
	if w.RewardMaxWealthFraction > 0 {
		r.RewardMaxWealthFraction = w.RewardMaxWealthFraction
	}
	if w.ExpiryDays > 0 {
		r.ExpiryDays = w.ExpiryDays
	}
	if w.AcceptRefDays > 0 {
		r.AcceptRefDays = w.AcceptRefDays
	}
	if w.DeadlineMinDays > 0 {
		r.DeadlineMinDays = w.DeadlineMinDays
	}
	if w.DeadlineMaxDays > 0 {
		r.DeadlineMaxDays = w.DeadlineMaxDays
	}
	if w.MaxPlayerWarrants > 0 {
		r.MaxPlayerWarrants = w.MaxPlayerWarrants
	}
	if w.RetaliationChance > 0 {
		r.RetaliationChance = w.RetaliationChance
	}
	if t.MaintenanceEvery > 0 {
		r.MaintenanceEvery = int64(t.MaintenanceEvery)
	}
	if w.PopulateMin > 0 {
		r.PopulateMin = w.PopulateMin
	}
	if w.PopulateMax > 0 {
		r.PopulateMax = w.PopulateMax
	}
	return cfg, r
}

package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the operator-editable knob surface, loaded from tuning.yaml.
// Zero values fall back to defaults at apply time so a partial file works.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	DayTicks           int `yaml:"day_ticks"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	MaintenanceEvery   int `yaml:"maintenance_every_ticks"`

	Warrants Warrants `yaml:"warrants"`
}

type Warrants struct {
	EnableAnimals   *bool   `yaml:"enable_animals"`
	EnableArtifacts *bool   `yaml:"enable_artifacts"`
	EnableColonists *bool   `yaml:"enable_colonists"`
	ColonistChance  float64 `yaml:"colonist_chance"`

	FailedByPlayerGoodwill     int `yaml:"failed_by_player_goodwill"`
	FailedByThirdPartyGoodwill int `yaml:"failed_by_third_party_goodwill"`
	RefusedPayoutGoodwill      int `yaml:"refused_payout_goodwill"`
	IssueOnNonHostileGoodwill  int `yaml:"issue_on_non_hostile_goodwill"`

	WarrantGenMTBDays float64 `yaml:"warrant_gen_mtb_days"`
	BountyRaidMTBDays float64 `yaml:"bounty_raid_mtb_days"`
	BountyRaidScale   float64 `yaml:"bounty_raid_scale"`

	RewardScaling           *bool   `yaml:"reward_scaling"`
	RewardMaxWealthFraction float64 `yaml:"reward_max_wealth_fraction"`

	ExpiryDays        int     `yaml:"expiry_days"`
	AcceptRefDays     int     `yaml:"accept_ref_days"`
	DeadlineMinDays   int     `yaml:"deadline_min_days"`
	DeadlineMaxDays   int     `yaml:"deadline_max_days"`
	MaxPlayerWarrants int     `yaml:"max_player_warrants"`
	RetaliationChance float64 `yaml:"retaliation_chance"`
	PopulateMin       int     `yaml:"populate_min"`
	PopulateMax       int     `yaml:"populate_max"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

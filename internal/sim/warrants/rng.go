package warrants

import "math"

// Deterministic rolls: everything stochastic in the engine derives from
// hashes of (seed, tick, salt) so a fixed seed replays identically.

// Roll salts, one per decision site.
const (
	saltPopulate = iota + 1
	saltGen
	saltGenColonist
	saltGenKind
	saltGenIssuer
	saltGenTarget
	saltGenReward
	saltGenDeadZero
	saltGenDeadShare
	saltGenReason
	saltThreat
	saltTakeRoll
	saltTakeFaction
	saltDeadline
	saltSuccess
	saltTier
	saltRetaliate
	saltRetaliateTarget
)

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, a, b int) uint64 {
	ua := uint64(uint32(int32(a)))
	ub := uint64(uint32(int32(b)))
	v := uint64(seed) ^ (ua * 0x9e3779b97f4a7c15) ^ (ub * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func hash3(seed int64, a, b, c int) uint64 {
	ua := uint64(uint32(int32(a)))
	ub := uint64(uint32(int32(b)))
	uc := uint64(uint32(int32(c)))
	v := uint64(seed) ^ (ua * 0x9e3779b97f4a7c15) ^ (ub * 0xc2b2ae3d27d4eb4f) ^ (uc * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func hashID(id string) int {
	// FNV-1a 64-bit, folded to int.
	var h uint64 = 1469598103934665603
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211
	}
	return int(uint32(h))
}

func chance01(h uint64) float64 {
	return float64(h>>11) / float64(1<<53)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m *Manager) roll(now int64, salt, extra int) uint64 {
	return hash3(m.cfg.Seed, int(now), salt, extra)
}

// rollChance rolls once for the given probability.
func (m *Manager) rollChance(p float64, now int64, salt, extra int) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return chance01(m.roll(now, salt, extra)) < p
}

// mtbFires approximates a Poisson occurrence check: an event with a mean
// time between events of mtbDays fires over an interval of checkTicks with
// probability 1-exp(-dt/mtb).
func (m *Manager) mtbFires(mtbDays float64, checkTicks int64, now int64, salt, extra int) bool {
	if mtbDays <= 0 || checkTicks <= 0 {
		return false
	}
	mtbTicks := mtbDays * float64(m.cfg.DayTicks)
	p := 1 - math.Exp(-float64(checkTicks)/mtbTicks)
	return m.rollChance(p, now, salt, extra)
}

// rangeInt returns a uniform int in [lo, hi] inclusive.
func (m *Manager) rangeInt(lo, hi int, now int64, salt, extra int) int {
	if hi <= lo {
		return lo
	}
	span := uint64(hi - lo + 1)
	return lo + int(m.roll(now, salt, extra)%span)
}

// rangeFloat returns a uniform float64 in [lo, hi).
func (m *Manager) rangeFloat(lo, hi float64, now int64, salt, extra int) float64 {
	if hi <= lo {
		return lo
	}
	return lo + chance01(m.roll(now, salt, extra))*(hi-lo)
}

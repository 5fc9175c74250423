package budget

// Tier classifies how much budget is left.
type Tier string

const (
	TierGood    Tier = "good"
	TierCaution Tier = "caution"
	TierLow     Tier = "low"
	TierWarning Tier = "warning"
)

// Gauge is the dashboard status derived from a remaining/available pair.
type Gauge struct {
	Status Tier
	Color  string
	Label  string
}

// Percentage returns how much of the available budget remains, clamped
// to [0, 100]. A non-positive available budget always reads as 0.
func Percentage(remaining, available float64) float64 {
	if available <= 0 {
		return 0
	}
	pct := remaining / available * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Status maps a remaining/available pair onto a gauge tier. A negative
// remaining is over budget regardless of the percentage; the band edges
// are exclusive on the low side, so exactly 50% is Caution and exactly
// 20% is Low Budget.
func Status(remaining, available float64) Gauge {
	if remaining < 0 {
		return Gauge{Status: TierWarning, Color: "red", Label: "Over Budget"}
	}
	pct := Percentage(remaining, available)
	switch {
	case pct > 50:
		return Gauge{Status: TierGood, Color: "green", Label: "On Track"}
	case pct > 20:
		return Gauge{Status: TierCaution, Color: "yellow", Label: "Caution"}
	default:
		return Gauge{Status: TierLow, Color: "red", Label: "Low Budget"}
	}
}

package geo

// Tier classifies a check-in distance against the branch geofence.
type Tier string

const (
	// TierWithin: close enough that the check-in is unremarkable (green).
	TierWithin Tier = "within"
	// TierBorderline: inside the allowed radius but flagged in the UI (yellow).
	TierBorderline Tier = "borderline"
	// TierOutOfRange: beyond the allowed radius (red). The check-in is not
	// blocked but must be explicitly confirmed by the coordinator.
	TierOutOfRange Tier = "out_of_range"
)

const (
	// WithinThresholdMeters separates "within" from "borderline".
	WithinThresholdMeters = 20.0

	// DefaultMaxDistanceMeters is the default geofence radius for check-ins.
	// Configurable per deployment via MAX_CHECKIN_DISTANCE_METERS.
	DefaultMaxDistanceMeters = 50.0
)

// Classification is the geofence policy verdict for a computed distance.
type Classification struct {
	Tier                 Tier `json:"tier"`
	RequiresConfirmation bool `json:"requires_confirmation"`
}

// Classify buckets a check-in distance against the configured geofence radius.
// Coordinators must always be able to log a visit even with a bad GPS fix, so
// an out-of-range distance requires confirmation instead of rejecting outright;
// the stored distance keeps the out-of-range fact available for audit.
func Classify(distanceMeters, maxDistanceMeters float64) Classification {
	switch {
	case distanceMeters <= WithinThresholdMeters:
		return Classification{Tier: TierWithin}
	case distanceMeters <= maxDistanceMeters:
		return Classification{Tier: TierBorderline}
	default:
		return Classification{Tier: TierOutOfRange, RequiresConfirmation: true}
	}
}

package geo

import "testing"

func TestClassifyTierBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		distance    float64
		wantTier    Tier
		wantConfirm bool
	}{
		{"zero", 0, TierWithin, false},
		{"exactly 20", 20, TierWithin, false},
		{"just over 20", 20.01, TierBorderline, false},
		{"exactly max", 50, TierBorderline, false},
		{"just over max", 50.01, TierOutOfRange, true},
		{"far out", 100, TierOutOfRange, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.distance, DefaultMaxDistanceMeters)
			if got.Tier != tt.wantTier {
				t.Errorf("Classify(%v) tier = %s, want %s", tt.distance, got.Tier, tt.wantTier)
			}
			if got.RequiresConfirmation != tt.wantConfirm {
				t.Errorf("Classify(%v) requiresConfirmation = %v, want %v", tt.distance, got.RequiresConfirmation, tt.wantConfirm)
			}
		})
	}
}

func TestClassifyCustomRadius(t *testing.T) {
	// A deployment with a wider radius keeps 80m check-ins confirmation-free.
	got := Classify(80, 100)
	if got.Tier != TierBorderline || got.RequiresConfirmation {
		t.Errorf("Classify(80, 100) = %+v, want borderline without confirmation", got)
	}
	got = Classify(100.5, 100)
	if got.Tier != TierOutOfRange || !got.RequiresConfirmation {
		t.Errorf("Classify(100.5, 100) = %+v, want out_of_range with confirmation", got)
	}
}

package vectorstore

import "testing"

func TestScoreFromDistance(t *testing.T) {
	tests := []struct {
		name     string
		distance *float64
		want     float64
	}{
		{"zero distance", ptr(0.0), 1.0},
		{"typical distance", ptr(0.25), 0.75},
		{"max distance", ptr(1.0), 0.0},
		{"missing distance falls back to 1", nil, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreFromDistance(tt.distance); got != tt.want {
				t.Errorf("ScoreFromDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }

package idgen

import "testing"

func TestPublicIDRoundTrip(t *testing.T) {
	if err := InitEncoder("test-seed"); err != nil {
		t.Fatalf("InitEncoder() error = %v", err)
	}

	tests := []struct {
		name       string
		dbID       uint
		entityType uint64
	}{
		{"probe", 1, EntityTypeProbe},
		{"snapshot", 42, EntityTypeSnapshot},
		{"large id", 1 << 30, EntityTypeUser},
		{"zero id", 0, EntityTypeGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publicID, err := GeneratePublicID(tt.dbID, tt.entityType)
			if err != nil {
				t.Fatalf("GeneratePublicID() error = %v", err)
			}
			if len(publicID) < 4 {
				t.Errorf("public id %q shorter than MinLength", publicID)
			}

			dbID, entityType, err := DecodePublicID(publicID)
			if err != nil {
				t.Fatalf("DecodePublicID() error = %v", err)
			}
			if dbID != tt.dbID || entityType != tt.entityType {
				t.Errorf("round trip = (%d, %d), want (%d, %d)", dbID, entityType, tt.dbID, tt.entityType)
			}
		})
	}
}

func TestDecodeMalformedID(t *testing.T) {
	if err := InitEncoder("test-seed"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodePublicID(""); err == nil {
		t.Error("DecodePublicID() accepted an empty id")
	}
}

func TestSeedChangesAlphabet(t *testing.T) {
	a := shuffleAlphabet("seed-a")
	b := shuffleAlphabet("seed-b")
	if a == b {
		t.Error("different seeds produced the same alphabet")
	}
	if a != shuffleAlphabet("seed-a") {
		t.Error("shuffleAlphabet is not deterministic")
	}
}

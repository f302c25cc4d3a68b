package auth

import (
	"os"
	"testing"
	"time"

	"github.com/probelab/probelab-app/pkg/idgen"
)

func TestMain(m *testing.M) {
	seed, err := idgen.GenerateRandomSeed()
	if err != nil {
		panic(err)
	}
	if err := idgen.InitEncoder(seed); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var secret = []byte("unit-test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, 1, secret)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	userID, entityType, err := idgen.DecodePublicID(claims.UserID)
	if err != nil {
		t.Fatalf("decoding claim user id: %v", err)
	}
	if userID != 7 || entityType != idgen.EntityTypeUser {
		t.Errorf("claim user id = (%d, %d), want (7, %d)", userID, entityType, idgen.EntityTypeUser)
	}

	groupID, entityType, err := idgen.DecodePublicID(claims.UserGroupID)
	if err != nil {
		t.Fatalf("decoding claim group id: %v", err)
	}
	if groupID != 1 || entityType != idgen.EntityTypeGroup {
		t.Errorf("claim group id = (%d, %d), want (1, %d)", groupID, entityType, idgen.EntityTypeGroup)
	}

	if exp := claims.ExpiresAt.Time; time.Until(exp) > 16*time.Minute {
		t.Errorf("access token lives too long: %v", exp)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(7, 1, secret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(token, []byte("other-secret")); err == nil {
		t.Fatal("ParseToken() accepted a token signed with a different secret")
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateToken(7, 1, nil); err == nil {
		t.Fatal("GenerateToken() accepted an empty secret")
	}
	if _, err := GenerateRefreshToken(7, nil); err == nil {
		t.Fatal("GenerateRefreshToken() accepted an empty secret")
	}
}

package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"

	"github.com/sqids/sqids-go"
)

var sqidsEncoder *sqids.Sqids

// DefaultAlphabet is used when no seed has been stored yet.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Entity type discriminators baked into every public ID so that an ID of
// one kind can never be replayed as another.
const (
	EntityTypeUser     uint64 = 1
	EntityTypeProbe    uint64 = 2
	EntityTypeStatus   uint64 = 3
	EntityTypePriority uint64 = 4
	EntityTypeSnapshot uint64 = 5
	EntityTypeGroup    uint64 = 6
)

// GenerateRandomSeed returns a 32-character hex seed for the encoder
// alphabet. Stored in the database on first run.
func GenerateRandomSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating random seed: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// shuffleAlphabet deterministically permutes the alphabet from a seed.
func shuffleAlphabet(seed string) string {
	var seedInt int64
	for i, c := range seed {
		seedInt += int64(c) * int64(i+1)
	}

	r := mrand.New(mrand.NewSource(seedInt))
	alphabet := []rune(DefaultAlphabet)
	r.Shuffle(len(alphabet), func(i, j int) {
		alphabet[i], alphabet[j] = alphabet[j], alphabet[i]
	})
	return string(alphabet)
}

// InitEncoder initializes the Sqids encoder. An empty seed keeps the
// default alphabet so existing public IDs stay decodable.
func InitEncoder(seed string) error {
	alphabet := DefaultAlphabet
	if seed != "" {
		alphabet = shuffleAlphabet(seed)
	}

	s, err := sqids.New(sqids.Options{
		MinLength: 4,
		Alphabet:  alphabet,
	})
	if err != nil {
		return fmt.Errorf("initializing sqids encoder: %w", err)
	}
	sqidsEncoder = s
	return nil
}

// GeneratePublicID encodes an internal DB id together with its entity type.
func GeneratePublicID(dbID uint, entityType uint64) (string, error) {
	if sqidsEncoder == nil {
		return "", fmt.Errorf("sqids encoder not initialized")
	}

	id, err := sqidsEncoder.Encode([]uint64{uint64(dbID), entityType})
	if err != nil {
		return "", fmt.Errorf("encoding public id: %w", err)
	}
	return id, nil
}

// DecodePublicID reverses GeneratePublicID and returns the internal id and
// the entity type the caller must verify.
func DecodePublicID(publicID string) (uint, uint64, error) {
	if sqidsEncoder == nil {
		return 0, 0, fmt.Errorf("sqids encoder not initialized")
	}

	numbers := sqidsEncoder.Decode(publicID)
	if len(numbers) != 2 {
		return 0, 0, fmt.Errorf("malformed public id %q", publicID)
	}
	return uint(numbers[0]), numbers[1], nil
}

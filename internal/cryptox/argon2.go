// Package cryptox implements salted, memory-hard password hashing on top of
// argon2id.
//
// Hashes are stored in the PHC string format
//
//	$argon2id$v=19$m=65536,t=3,p=4$<base64 salt>$<base64 key>
//
// so the parameters travel with every hash and can be raised later without
// invalidating existing records.
package cryptox

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// ErrMalformedHash is returned by Verify when the stored value is not a
// PHC-encoded argon2id hash.
var ErrMalformedHash = errors.New("malformed password hash")

// Argon2Params controls the cost of a single hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams mirrors the defaults of the reference argon2 bindings.
var DefaultParams = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher hashes and verifies passwords. Calls are bounded by a
// weighted semaphore so that at most `workers` derivations run at once;
// the rest wait (honouring ctx) instead of starving the HTTP goroutines.
type Argon2Hasher struct {
	params Argon2Params
	sem    *semaphore.Weighted
}

// NewArgon2Hasher builds a hasher. workers <= 0 means runtime.NumCPU().
func NewArgon2Hasher(workers int, params Argon2Params) *Argon2Hasher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Argon2Hasher{params: params, sem: semaphore.NewWeighted(int64(workers))}
}

// DeriveKey runs argon2id over password and salt with the given parameters.
func DeriveKey(password, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// Hash returns the PHC encoding of a fresh salted argon2id hash of password.
func (h *Argon2Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	salt := common.GenerateRandByteArray(int(h.params.SaltLength))
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	key := DeriveKey(pw, salt, h.params)
	return encode(h.params, salt, key), nil
}

// Verify reports whether password matches encoded. A mismatch is (false, nil);
// an error is returned only for an unparsable hash or a cancelled ctx.
func (h *Argon2Hasher) Verify(ctx context.Context, encoded, password string) (bool, error) {
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	candidate := DeriveKey(pw, salt, p)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func encode(p Argon2Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decode(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}

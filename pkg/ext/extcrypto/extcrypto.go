// Package extcrypto provides identifier and hashing functions.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"crypto/hmac"
	"crypto/md5"  //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extutil"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// All returns all cryptographic function definitions.
func All[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	return []*runtime.FunctionDef[N]{
		UUID[N](),
		Hash[N](),
		HMAC[N](),
	}
}

// UUID returns the definition for ext:uuid(), a random version 4 UUID.
// Every evaluation of the call yields a new value.
func UUID[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("uuid", 0, 0, func(*runtime.CallContext[N], []xdm.Stream[N]) (xdm.Stream[N], error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return nil, types.Errorf(types.ErrUserError, "ext:uuid: %v", err).WithCause(err)
		}
		return extutil.String[N](id.String()), nil
	})
}

// Hash returns the definition for ext:hash($s[, $algorithm]).
// Supported algorithms: "md5", "sha1", "sha256" (the default), "sha384",
// "sha512". Returns a lowercase hex-encoded digest of the UTF-8 bytes.
func Hash[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("hash", 1, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], "ext:hash")
		if err != nil {
			return nil, err
		}
		algorithm := "sha256"
		if len(args) > 1 {
			if algorithm, err = extutil.OptString(args[1], "ext:hash"); err != nil {
				return nil, err
			}
		}
		newHash, err := hasher(algorithm, "ext:hash")
		if err != nil {
			return nil, err
		}
		h := newHash()
		h.Write([]byte(s))
		return extutil.String[N](hex.EncodeToString(h.Sum(nil))), nil
	})
}

// HMAC returns the definition for ext:hmac($s, $key[, $algorithm]).
// Returns a lowercase hex-encoded HMAC; the algorithm defaults to sha256.
func HMAC[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("hmac", 2, 3, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], "ext:hmac")
		if err != nil {
			return nil, err
		}
		key, err := extutil.OptString(args[1], "ext:hmac")
		if err != nil {
			return nil, err
		}
		algorithm := "sha256"
		if len(args) > 2 {
			if algorithm, err = extutil.OptString(args[2], "ext:hmac"); err != nil {
				return nil, err
			}
		}
		newHash, err := hasher(algorithm, "ext:hmac")
		if err != nil {
			return nil, err
		}
		mac := hmac.New(newHash, []byte(key))
		mac.Write([]byte(s))
		return extutil.String[N](hex.EncodeToString(mac.Sum(nil))), nil
	})
}

// ── helpers ────────────────────────────────────────────────────────────────

func hasher(algorithm, fn string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	}
	return nil, types.Errorf(types.ErrInvalidArgument,
		"%s: unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", fn, algorithm)
}

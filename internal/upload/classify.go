package upload

import (
	"strings"
)

const (
	// SameHashMessage is the service's exact error for content it already
	// holds.
	SameHashMessage = "File with the same hash already exists"

	// AlreadyPinnedFragment appears in the free-text variants of the same
	// rejection.
	AlreadyPinnedFragment = "already pinned"
)

// Signature is one structural shape of a duplicate-content rejection.
type Signature struct {
	Name  string
	Match func(payload any) bool
}

// DuplicateSignatures are checked in order against the error payload's
// details field, then against the payload itself.
var DuplicateSignatures = []Signature{
	{
		Name: "same-hash error field",
		Match: func(payload any) bool {
			msg, ok := errorField(payload)
			return ok && strings.TrimSpace(msg) == SameHashMessage
		},
	},
	{
		Name: "already-pinned text",
		Match: func(payload any) bool {
			text, ok := payload.(string)
			return ok && containsFold(text, AlreadyPinnedFragment)
		},
	},
	{
		Name: "already-pinned error field",
		Match: func(payload any) bool {
			msg, ok := errorField(payload)
			return ok && containsFold(msg, AlreadyPinnedFragment)
		},
	},
}

// MatchDuplicate returns the first signature that matches payload.
func MatchDuplicate(payload any) (Signature, bool) {
	for _, candidate := range candidates(payload) {
		for _, sig := range DuplicateSignatures {
			if sig.Match(candidate) {
				return sig, true
			}
		}
	}
	return Signature{}, false
}

// IsDuplicate reports whether payload signals duplicate content.
func IsDuplicate(payload any) bool {
	_, ok := MatchDuplicate(payload)
	return ok
}

func candidates(payload any) []any {
	out := make([]any, 0, 2)
	if obj, ok := payload.(map[string]any); ok {
		if details, ok := obj["details"]; ok && details != nil {
			out = append(out, details)
		}
	}
	if payload != nil {
		out = append(out, payload)
	}
	return out
}

func errorField(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := obj["error"].(string)
	return msg, ok
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

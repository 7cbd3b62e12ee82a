package utils

import (
	"strings"

	"github.com/google/uuid"
)

// Id prefixes per relation
const (
	PrefixUser     = "user"
	PrefixTeam     = "team"
	PrefixMeeting  = "meet"
	PrefixDocument = "doc"
	PrefixFile     = "file"
	PrefixMessage  = "msg"
)

// NewID returns a prefixed, collision-resistant identifier such as "team_<uuid>".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// IDPrefix returns the role-indicating prefix of an id generated by NewID.
func IDPrefix(id string) string {
	prefix, _, found := strings.Cut(id, "_")
	if !found {
		return ""
	}
	return prefix
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

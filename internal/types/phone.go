// README: Phone identity shared by profiles, conversations and rides.
package types

import "strings"

// Phone is a sender's phone number with any channel prefix removed.
type Phone string

func (p Phone) String() string { return string(p) }

// Valid reports whether p carries a usable identity.
func (p Phone) Valid() bool {
	return strings.TrimSpace(string(p)) != ""
}

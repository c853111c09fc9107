package enums

import "fmt"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorTypeMember      ActorType = "member"
	ActorTypeDistributor ActorType = "distributor"
	ActorTypeAdmin       ActorType = "admin"
)

var validActorTypes = []ActorType{
	ActorTypeMember,
	ActorTypeDistributor,
	ActorTypeAdmin,
}

// String implements fmt.Stringer.
func (a ActorType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorType.
func (a ActorType) IsValid() bool {
	for _, candidate := range validActorTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorType converts raw input into an ActorType.
func ParseActorType(value string) (ActorType, error) {
	for _, candidate := range validActorTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor type %q", value)
}

package core

import (
	"fmt"
	"strings"
)

// Default party names, matching the names used in transcripts when the
// caller does not pick any.
const (
	DefaultPartyA = "agent1"
	DefaultPartyB = "agent2"
)

// ParsePartySpec parses a party specification string.
// Format: name[:profile]
//
// Examples:
//   - "alice" -> {Name: "alice", Profile: ""}
//   - "alice:economist" -> {Name: "alice", Profile: "economist"}
//   - ":ecologist" -> {Name: "", Profile: "ecologist"}
func ParsePartySpec(spec string) (PartySpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return PartySpec{}, fmt.Errorf("party spec cannot be empty")
	}

	var p PartySpec
	parts := strings.SplitN(spec, ":", 2)
	p.Name = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		p.Profile = strings.TrimSpace(parts[1])
		if p.Profile == "" {
			return PartySpec{}, fmt.Errorf("profile cannot be empty in spec: %s", spec)
		}
	}

	if strings.ContainsAny(p.Name, " \t,") {
		return PartySpec{}, fmt.Errorf("party name must be a single token: %q", p.Name)
	}

	return p, nil
}

// WithDefaults fills the name and profile when they were left empty.
func (p PartySpec) WithDefaults(name, profile string) PartySpec {
	if p.Name == "" {
		p.Name = name
	}
	if p.Profile == "" {
		p.Profile = profile
	}
	return p
}

// String renders the party back to name:profile form.
func (p PartySpec) String() string {
	if p.Profile == "" {
		return p.Name
	}
	return p.Name + ":" + p.Profile
}

package logger

import "strings"

// Domain is a logical log bucket. The engine multiplexes several domains
// over its two OS streams; classification is content-based, not stream-based.
type Domain string

const (
	DomainEngine Domain = "engine"
	DomainScript Domain = "script"
	DomainPlugin Domain = "plugin"
	DomainAudit  Domain = "audit"
	DomainCrash  Domain = "crash"
	DomainOther  Domain = "other"
)

// domainMarkers maps known line markers to their domain. The marker list is
// heuristic and intentionally incomplete; unrecognized lines go to the
// engine domain rather than failing.
var domainMarkers = []struct {
	marker string
	domain Domain
}{
	{"[SCRIPT]", DomainScript},
	{"[PLUGIN]", DomainPlugin},
	{"[AUDIT]", DomainAudit},
	{"[CRASH]", DomainCrash},
}

// Classify routes a raw engine output line to its log domain.
func Classify(line string) Domain {
	for _, m := range domainMarkers {
		if strings.Contains(line, m.marker) {
			return m.domain
		}
	}
	return DomainEngine
}

// ParseDomain maps a user-supplied name to a Domain.
func ParseDomain(name string) (Domain, bool) {
	switch Domain(strings.ToLower(name)) {
	case DomainEngine, DomainScript, DomainPlugin, DomainAudit, DomainCrash, DomainOther:
		return Domain(strings.ToLower(name)), true
	}
	return "", false
}

// Prefix returns the marker prepended to sink lines for this domain,
// or "" for domains written without one.
func (d Domain) Prefix() string {
	switch d {
	case DomainScript:
		return "[SCRIPT]"
	case DomainPlugin:
		return "[PLUGIN]"
	case DomainAudit:
		return "[AUDIT]"
	case DomainCrash:
		return "[CRASH]"
	default:
		return ""
	}
}

// Filename returns the log file name a domain is persisted to.
func (d Domain) Filename() string {
	switch d {
	case DomainEngine:
		return "engine.log"
	case DomainScript:
		return "script.log"
	case DomainPlugin:
		return "plugin.log"
	case DomainAudit:
		return "audit.log"
	case DomainCrash:
		return "crash.log"
	default:
		return "custom.log"
	}
}

package container

import "strings"

// Mode selects how a dependency reference is resolved.
type Mode int

const (
	// ModeSingleton resolves through the singleton cache, building once.
	ModeSingleton Mode = iota
	// ModeInstance always builds a fresh, uncached instance.
	ModeInstance
	// ModeDefinition hands back the *Definition itself.
	ModeDefinition
)

func (m Mode) String() string {
	switch m {
	case ModeInstance:
		return "instance"
	case ModeDefinition:
		return "definition"
	default:
		return "singleton"
	}
}

// Ref is a dependency reference: a registered name plus a resolution mode.
type Ref struct {
	Mode Mode
	Name string
}

// Singleton references the cached instance of name.
func Singleton(name string) Ref { return Ref{Mode: ModeSingleton, Name: name} }

// Instance references a fresh instance of name.
func Instance(name string) Ref { return Ref{Mode: ModeInstance, Name: name} }

// DefinitionOf references the definition registered under name.
func DefinitionOf(name string) Ref { return Ref{Mode: ModeDefinition, Name: name} }

// ParseRef parses the string grammar "[mode:]name" where mode is "i"
// (instance) or "d" (definition). Anything else, including a missing
// prefix, is a singleton reference.
//
//	ParseRef("db")          // Singleton("db")
//	ParseRef("i:mailer")    // Instance("mailer")
//	ParseRef("d:action")    // DefinitionOf("action")
func ParseRef(s string) Ref {
	prefix, name, ok := strings.Cut(s, ":")
	if !ok {
		return Singleton(s)
	}
	switch prefix {
	case "i":
		return Instance(name)
	case "d":
		return DefinitionOf(name)
	default:
		return Singleton(name)
	}
}

// Refs parses every string with ParseRef.
func Refs(refs ...string) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		out = append(out, ParseRef(r))
	}
	return out
}

func (r Ref) String() string {
	switch r.Mode {
	case ModeInstance:
		return "i:" + r.Name
	case ModeDefinition:
		return "d:" + r.Name
	default:
		return r.Name
	}
}

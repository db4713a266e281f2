// Package types defines the shared data structures for the FableCore engine.
// This package contains only type definitions: no logic, no methods.
package types

import "time"

// PlayerID is the reserved id of the player actor. It always exists.
const PlayerID = "player"

// WordClass is the grammatical class of a vocabulary word.
type WordClass int

const (
	ClassNone WordClass = iota
	ClassVerb
	ClassNoun
	ClassAdjective
	ClassPreposition
	ClassDirection
	ClassArticle
)

// Word is a single vocabulary entry. Identity is the canonical Text;
// synonyms are aliases resolved at lookup time.
type Word struct {
	Text           string
	Class          WordClass
	Synonyms       []string
	ObjectRequired bool   // verb needs a direct object
	Verbosity      string // narration verbosity class, e.g. "brief"
}

// Command is the parsed representation of a player command. Every field
// except Raw is optional and points into the session vocabulary.
type Command struct {
	Verb              *Word
	DirectObject      *Word
	DirectAdjective   *Word
	Preposition       *Word
	IndirectObject    *Word
	IndirectAdjective *Word
	Direction         *Word
	Raw               string
}

// Outcome is the structured result of a handler or reaction.
type Outcome struct {
	Success      bool
	Message      string
	Data         map[string]any
	Vetoed       bool
	Unrecognized bool // no handler claimed the verb
}

// ChangeOp is the operation a Change performs on a field.
type ChangeOp int

const (
	OpSet ChangeOp = iota
	OpAdd
	OpUnset
)

// Change is one proposed field mutation submitted to the mutation gate.
type Change struct {
	Field string
	Op    ChangeOp
	Value any
}

// MutationResult is the output of a single gate application.
type MutationResult struct {
	EntityID string
	Applied  bool
	Vetoed   bool
	Message  string
	Err      error // set when the changes themselves were invalid
}

// EntityKind tags the variant of an Entity.
type EntityKind string

const (
	KindLocation EntityKind = "location"
	KindItem     EntityKind = "item"
	KindActor    EntityKind = "actor"
	KindLock     EntityKind = "lock"
	KindExit     EntityKind = "exit"
)

// Entity is any world object. Exactly one variant pointer matching Kind is
// non-nil; free-form data lives in Props.
type Entity struct {
	ID          string         `json:"id"`
	Kind        EntityKind     `json:"kind"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Location    *LocationData  `json:"location,omitempty"`
	Item        *ItemData      `json:"item,omitempty"`
	Actor       *ActorData     `json:"actor,omitempty"`
	Lock        *LockData      `json:"lock,omitempty"`
	Exit        *ExitData      `json:"exit,omitempty"`
	Props       map[string]any `json:"props,omitempty"`
	Behaviors   []string       `json:"behaviors,omitempty"`
}

// LocationData holds the structural fields of a location.
type LocationData struct{}

// ItemData holds the structural fields of an item.
type ItemData struct {
	Container string `json:"container"` // location, actor or item id
	Portable  bool   `json:"portable"`
}

// ActorData holds the structural fields of an actor.
type ActorData struct {
	Location   string      `json:"location"`
	Health     int         `json:"health"`
	MaxHealth  int         `json:"max_health"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Condition is a timed effect on an actor. Remaining < 0 never expires.
type Condition struct {
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Damage    int    `json:"damage"` // per-turn health loss
}

// LockData holds the structural fields of a lock.
type LockData struct {
	Locked bool     `json:"locked"`
	Keys   []string `json:"keys"`
}

// ExitData holds the structural fields of an exit.
type ExitData struct {
	From        string `json:"from"`
	Direction   string `json:"direction"`
	Destination string `json:"destination"`
	Lock        string `json:"lock,omitempty"`
}

// TurnOrder selects how actors are ordered in the actor phase.
type TurnOrder string

const (
	OrderSorted   TurnOrder = "sorted"
	OrderShuffled TurnOrder = "shuffled"
)

// ScheduledEvent fires an event on an entity at a given turn.
type ScheduledEvent struct {
	Turn     int    `json:"turn"`
	EntityID string `json:"entity"`
	Event    string `json:"event"`
}

// GameDef holds game metadata from content.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// Snapshot is the full, immutable persisted world taken at Idle.
type Snapshot struct {
	ID        string           `json:"id"`
	Game      string           `json:"game"`
	Turn      int              `json:"turn"`
	TurnOrder TurnOrder        `json:"turn_order"`
	Entities  []Entity         `json:"entities"`
	Scheduled []ScheduledEvent `json:"scheduled,omitempty"`
	SavedAt   time.Time        `json:"saved_at"`
}

// Result is the output of a single engine step.
type Result struct {
	Input      string
	Command    *Command
	ParseError error
	Outcome    Outcome
	Reactions  []Outcome // outcomes surfaced by the turn phases
	TurnTaken  bool
	Turn       int
	GameOver   bool
}

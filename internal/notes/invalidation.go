package notes

// Kind is the mutation that caused an invalidation.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Scope is a bit set of views made stale by a mutation.
type Scope uint8

const (
	// ScopeList marks the owner's note list as stale.
	ScopeList Scope = 1 << iota
	// ScopeNote marks the single-note view of NoteID as stale.
	ScopeNote
)

// Has reports whether s includes every bit of other.
func (s Scope) Has(other Scope) bool { return s&other == other }

// String renders the scope for logs and event payloads.
func (s Scope) String() string {
	switch s {
	case ScopeList:
		return "list"
	case ScopeNote:
		return "note"
	case ScopeList | ScopeNote:
		return "list,note"
	default:
		return ""
	}
}

// Invalidation tells consumers which views a successful mutation made stale.
type Invalidation struct {
	Kind   Kind
	NoteID string
	UserID string
	Scope  Scope
}

// Invalidator is notified after every successful mutation.
// Implementations must not block.
type Invalidator interface {
	Invalidate(Invalidation)
}

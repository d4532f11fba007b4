package graph

// --- Enums ---

// State tracks a module's progress through the bundling pipeline. Transitions
// are linear and one-shot within a bundle call; a state is never revisited.
type State int

const (
	StateDiscovered State = iota
	StateParsed
	StateAnalyzed
	StateTransformed
	StateEmitted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateParsed:
		return "parsed"
	case StateAnalyzed:
		return "analyzed"
	case StateTransformed:
		return "transformed"
	case StateEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// ImportKind classifies the binding forms present on an import declaration.
type ImportKind string

const (
	ImportKindDefault   ImportKind = "default"
	ImportKindNamed     ImportKind = "named"
	ImportKindNamespace ImportKind = "namespace"
)

// --- Models ---

// NamedBinding is one entry of a named-import or named-export list: the name
// on the other module and the local name it binds to. For "import {x}" both
// are "x"; for "import {x as y}" Imported is "x" and Local is "y".
type NamedBinding struct {
	Imported string `json:"imported"`
	Local    string `json:"local"`
}

// Import describes one import declaration, or the dependency edge recorded
// for a re-export with a source. Resolved is the canonical key for local
// specifiers and empty for external ones.
type Import struct {
	Specifier string         `json:"specifier"`
	Resolved  string         `json:"resolved,omitempty"`
	External  bool           `json:"external"`
	Default   string         `json:"default,omitempty"`   // local name, "" if absent
	Namespace string         `json:"namespace,omitempty"` // local name, "" if absent
	Named     []NamedBinding `json:"named,omitempty"`
	Start     uint           `json:"start"` // byte span of the declaration
	End       uint           `json:"end"`
}

// Kinds returns the set of binding forms on this import.
func (im Import) Kinds() []ImportKind {
	var kinds []ImportKind
	if im.Namespace != "" {
		kinds = append(kinds, ImportKindNamespace)
	}
	if im.Default != "" {
		kinds = append(kinds, ImportKindDefault)
	}
	if len(im.Named) > 0 {
		kinds = append(kinds, ImportKindNamed)
	}
	return kinds
}

// Exports describes what a module exposes: the named exports in declaration
// order and whether a default export is present.
type Exports struct {
	Names      []string `json:"names,omitempty"`
	HasDefault bool     `json:"hasDefault"`
}

// Has reports whether name is among the named exports.
func (e Exports) Has(name string) bool {
	for _, n := range e.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Edit is a byte-range substitution over the original module source. Start
// and End are offsets into the original text with Start <= End; edits on one
// module never overlap and are applied in descending Start order so earlier
// offsets stay valid.
type Edit struct {
	Start       uint   `json:"start"`
	End         uint   `json:"end"`
	Replacement string `json:"replacement"`
}

// Module is the analyzed-but-not-transformed state of one source file. A
// record is created the first time its canonical key is seen, is immutable
// after analysis, and lives for one bundle call.
type Module struct {
	// ID is assigned in discovery order, contiguous from 0.
	ID int `json:"id"`

	// Key is the canonical module key: an absolute .js-suffixed path.
	Key string `json:"key"`

	// Source is the original file content.
	Source []byte `json:"-"`

	Edits   []Edit   `json:"edits,omitempty"`
	Imports []Import `json:"imports,omitempty"`
	Exports Exports  `json:"exports"`

	// Appends are trailing export assignments scheduled by the analyzer,
	// emitted after the edited source in order.
	Appends []string `json:"appends,omitempty"`

	// satisfied holds export names already covered by an edit or a scheduled
	// append, so the transformer emits exactly one assignment per name.
	satisfied map[string]bool

	state State
}

// State returns the module's pipeline state.
func (m *Module) State() State { return m.state }

// SetState advances the pipeline state. Moving backwards is ignored.
func (m *Module) SetState(s State) {
	if s > m.state {
		m.state = s
	}
}

// Satisfied reports whether an assignment for name is already scheduled.
func (m *Module) Satisfied(name string) bool { return m.satisfied[name] }

// markSatisfied records that an assignment for name has been scheduled.
func (m *Module) markSatisfied(name string) {
	if m.satisfied == nil {
		m.satisfied = make(map[string]bool)
	}
	m.satisfied[name] = true
}

// Graph is the dependency graph of one bundle call: a mapping from canonical
// key to module record plus the discovery order. Invariants: every local
// import of every record resolves to a present key; the mapping is exactly
// the transitive closure of local imports from the entry; ids are contiguous
// from 0; cycles are allowed but each key is recorded once.
type Graph struct {
	modules map[string]*Module
	order   []*Module // discovery order, index == Module.ID
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{modules: make(map[string]*Module)}
}

// Lookup returns the record for key, or nil.
func (g *Graph) Lookup(key string) *Module { return g.modules[key] }

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.order) }

// Modules returns the records in discovery order. The returned slice is
// shared; callers must not mutate it.
func (g *Graph) Modules() []*Module { return g.order }

// insert adds a record under its key and assigns the next id.
func (g *Graph) insert(m *Module) {
	m.ID = len(g.order)
	g.modules[m.Key] = m
	g.order = append(g.order, m)
}

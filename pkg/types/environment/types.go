// Package environment defines the request and response structures for
// pattern analysis and stored chemical environments. They are shared by the
// HTTP layer, the SDK in pkg/client, the CLI and the event bus, so nothing
// here depends on the pattern core.
package environment

import (
	"time"

	"github.com/turtacn/chemenv/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Component views
// ─────────────────────────────────────────────────────────────────────────────

// ORTypeSpec is one OR alternative: a primary decorator refined by the
// decorators that must also hold.
type ORTypeSpec struct {
	Primary    string   `json:"primary"`
	Decorators []string `json:"decorators,omitempty"`
}

// AtomView describes one atom of an analyzed pattern. Position is the atom's
// index in the SMIRKS rendering of the pattern it was read from.
type AtomView struct {
	Position   int          `json:"position"`
	Label      int          `json:"label,omitempty"`
	Expression string       `json:"expression"`
	ORTypes    []ORTypeSpec `json:"or_types,omitempty"`
	ANDTypes   []string     `json:"and_types,omitempty"`
	Degree     int          `json:"degree"`
	BondOrder  float64      `json:"bond_order"`
	Role       string       `json:"role"`
}

// BondView describes one bond. Atoms holds the positions of its endpoints.
type BondView struct {
	Position    int          `json:"position"`
	Label       int          `json:"label,omitempty"`
	Atoms       [2]int       `json:"atoms"`
	Expression  string       `json:"expression"`
	ORTypes     []ORTypeSpec `json:"or_types,omitempty"`
	ANDTypes    []string     `json:"and_types,omitempty"`
	Order       float64      `json:"order"`
	Role        string       `json:"role"`
	RingClosure bool         `json:"ring_closure,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Pattern operations
// ─────────────────────────────────────────────────────────────────────────────

// AnalyzeRequest asks for the full analysis of one pattern.
type AnalyzeRequest struct {
	Pattern string `json:"pattern"`
}

// AnalysisResult is the parsed, classified and re-serialized form of a
// pattern. WellFormed is the oracle's verdict on SMIRKS.
type AnalysisResult struct {
	Pattern    string     `json:"pattern"`
	SMIRKS     string     `json:"smirks"`
	SMARTS     string     `json:"smarts"`
	Category   string     `json:"category"`
	Atoms      []AtomView `json:"atoms"`
	Bonds      []BondView `json:"bonds"`
	WellFormed bool       `json:"well_formed"`
}

// SelectRequest resolves one descriptor against a pattern. Kind is "atom" or
// "bond"; Descriptor is a label number, one of Indexed, Unindexed, Alpha,
// Beta, or empty for the default selection.
type SelectRequest struct {
	Pattern    string `json:"pattern"`
	Kind       string `json:"kind"`
	Descriptor string `json:"descriptor,omitempty"`
}

// SelectResult carries exactly one of Atom or Bond.
type SelectResult struct {
	Kind string    `json:"kind"`
	Atom *AtomView `json:"atom,omitempty"`
	Bond *BondView `json:"bond,omitempty"`
}

// ComponentsRequest lists every component of Kind matching Option. An empty
// Option lists all of them.
type ComponentsRequest struct {
	Pattern string `json:"pattern"`
	Kind    string `json:"kind"`
	Option  string `json:"option,omitempty"`
}

// ComponentsResult holds the matches of a ComponentsRequest in pattern order.
type ComponentsResult struct {
	Kind  string     `json:"kind"`
	Atoms []AtomView `json:"atoms,omitempty"`
	Bonds []BondView `json:"bonds,omitempty"`
}

// RenderRequest re-serializes a pattern. IncludeLabels defaults to true.
type RenderRequest struct {
	Pattern       string `json:"pattern"`
	IncludeLabels *bool  `json:"include_labels,omitempty"`
}

// Labels reports the effective IncludeLabels value.
func (r RenderRequest) Labels() bool {
	return r.IncludeLabels == nil || *r.IncludeLabels
}

// RenderResult is the output of a RenderRequest.
type RenderResult struct {
	Pattern       string `json:"pattern"`
	Output        string `json:"output"`
	IncludeLabels bool   `json:"include_labels"`
}

// BatchAnalyzeRequest analyzes several patterns concurrently.
type BatchAnalyzeRequest struct {
	Patterns []string `json:"patterns"`
}

// BatchItem is the outcome for one pattern of a batch, in input order.
type BatchItem struct {
	Index   int                 `json:"index"`
	Pattern string              `json:"pattern"`
	Result  *AnalysisResult     `json:"result,omitempty"`
	Error   *common.ErrorDetail `json:"error,omitempty"`
}

// BatchAnalyzeResponse collects every BatchItem of a batch.
type BatchAnalyzeResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Stored environments
// ─────────────────────────────────────────────────────────────────────────────

// CreateEnvironmentRequest stores a new environment built from Pattern.
type CreateEnvironmentRequest struct {
	Pattern string `json:"pattern"`
}

// EnvironmentRecord is the externally visible state of a stored environment.
type EnvironmentRecord struct {
	ID        string    `json:"id"`
	SMIRKS    string    `json:"smirks"`
	Category  string    `json:"category"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnvironmentList is one page of stored environments.
type EnvironmentList struct {
	Items []EnvironmentRecord `json:"items"`
	Total int64               `json:"total"`
}

// AddAtomRequest attaches a new atom to the atom at Parent. Empty bond
// groups produce the implicit bond and an empty OR group the wildcard.
type AddAtomRequest struct {
	Parent       int          `json:"parent"`
	BondORTypes  []ORTypeSpec `json:"bond_or_types,omitempty"`
	BondANDTypes []string     `json:"bond_and_types,omitempty"`
	ORTypes      []ORTypeSpec `json:"or_types,omitempty"`
	ANDTypes     []string     `json:"and_types,omitempty"`
	Label        int          `json:"label,omitempty"`
}

// AddAtomResult reports the new atom's position in the updated SMIRKS.
type AddAtomResult struct {
	Record   EnvironmentRecord `json:"record"`
	Position int               `json:"position"`
}

// AddDecoratorRequest appends an OR alternative or AND term to one atom or
// bond. Exactly one of ORType and ANDType must be set.
type AddDecoratorRequest struct {
	Kind     string      `json:"kind"`
	Position int         `json:"position"`
	ORType   *ORTypeSpec `json:"or_type,omitempty"`
	ANDType  string      `json:"and_type,omitempty"`
}

// RemoveAtomResult reports whether the atom was removed. A rejected removal
// leaves Record unchanged.
type RemoveAtomResult struct {
	Removed bool              `json:"removed"`
	Record  EnvironmentRecord `json:"record"`
}

// EnvironmentRevision is one archived state of an environment. Version 1 is
// the creation; every later revision records the mutation that produced it.
type EnvironmentRevision struct {
	EnvironmentID string    `json:"environment_id"`
	Version       int64     `json:"version"`
	SMIRKS        string    `json:"smirks"`
	Category      string    `json:"category"`
	Operation     string    `json:"operation"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// RevisionList holds the archived revisions of one environment, oldest first.
type RevisionList struct {
	EnvironmentID string                `json:"environment_id"`
	Items         []EnvironmentRevision `json:"items"`
}

// SearchRequest filters stored environments. Every set field must match.
// Decorators are tokens such as "#6" or "X4" that must occur on some atom or
// bond; Text matches a substring of the SMIRKS.
type SearchRequest struct {
	Category   string   `json:"category,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Text       string   `json:"text,omitempty"`
	Page       int      `json:"page,omitempty"`
	PageSize   int      `json:"page_size,omitempty"`
}

// EnvironmentDocument is the indexed form of an environment.
type EnvironmentDocument struct {
	EnvironmentRecord
	Decorators []string `json:"decorators"`
	AtomCount  int      `json:"atom_count"`
	BondCount  int      `json:"bond_count"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Event payloads
// ─────────────────────────────────────────────────────────────────────────────

// PatternSubmitted asks a worker to analyze Pattern.
type PatternSubmitted struct {
	RequestID string `json:"request_id"`
	Pattern   string `json:"pattern"`
}

// PatternAnalyzed is published once a submitted or requested pattern has been
// analyzed. Exactly one of Result and Error is set.
type PatternAnalyzed struct {
	RequestID string              `json:"request_id,omitempty"`
	Pattern   string              `json:"pattern"`
	Result    *AnalysisResult     `json:"result,omitempty"`
	Error     *common.ErrorDetail `json:"error,omitempty"`
}

//Personal.AI order the ending

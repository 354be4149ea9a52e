package entities

import (
	"strings"

	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/utils"
)

// Protocol is one row of the institutional protocol reference: a named
// imaging procedure template with its canonical contrast and acquisition
// parameters.
type Protocol struct {
	Name         string `json:"name"`
	IVContrast   string `json:"iv_contrast"`
	OralContrast string `json:"oral_contrast"`
	Acquisitions string `json:"acquisitions"`
	Indications  string `json:"indications"`
	Notes        string `json:"notes,omitempty"`
}

// IndicationTokens splits the comma-separated example indications into
// trimmed, non-empty tokens.
func (p *Protocol) IndicationTokens() []string {
	return utils.SplitList(p.Indications)
}

// ProtocolTable is the loaded protocol reference. Protocol names are unique
// within the table; the loader resolves duplicates last-wins and logs them.
// The table is read-only after construction and safe to share across
// concurrent requests.
type ProtocolTable struct {
	protocols []*Protocol
	byName    map[string]*Protocol
}

// NewProtocolTable builds a table from reference rows. Rows with a name seen
// earlier replace the earlier row but keep its position, so iteration order
// follows the source.
func NewProtocolTable(protocols []*Protocol) *ProtocolTable {
	table := &ProtocolTable{
		byName: make(map[string]*Protocol, len(protocols)),
	}
	for _, p := range protocols {
		key := normalizeProtocolName(p.Name)
		if existing, ok := table.byName[key]; ok {
			*existing = *p
			continue
		}
		table.protocols = append(table.protocols, p)
		table.byName[key] = p
	}
	return table
}

// Protocols returns the rows in source order.
func (t *ProtocolTable) Protocols() []*Protocol {
	return t.protocols
}

// Len returns the number of distinct protocols.
func (t *ProtocolTable) Len() int {
	return len(t.protocols)
}

// GetByName looks up a protocol by name, case-insensitively.
func (t *ProtocolTable) GetByName(name string) (*Protocol, bool) {
	p, ok := t.byName[normalizeProtocolName(name)]
	return p, ok
}

func normalizeProtocolName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package journal

// Document is the aggregate persisted as one JSON blob.
type Document struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Entry is one structured worry record.
// JSON names are camelCase to match the export file format, so
// exported files stay interchangeable.
type Entry struct {
	ID              string     `json:"id" yaml:"id"`
	Date            string     `json:"date" yaml:"date"`
	Title           string     `json:"title" yaml:"title"`
	Anxiety         string     `json:"anxiety" yaml:"anxiety"`
	Scenarios       []Scenario `json:"scenarios" yaml:"scenarios"`
	Benefits        []Benefit  `json:"benefits" yaml:"benefits"`
	EvidenceFor     string     `json:"evidenceFor" yaml:"evidenceFor"`
	EvidenceAgainst string     `json:"evidenceAgainst" yaml:"evidenceAgainst"`
	TinyAction      string     `json:"tinyAction" yaml:"tinyAction"`
	TinyWhen        string     `json:"tinyWhen" yaml:"tinyWhen"`
	Reset           string     `json:"reset" yaml:"reset"`
	Reflection      string     `json:"reflection" yaml:"reflection"`
}

// Scenario is one imagined outcome with its probability (percent) and an
// optional coping plan. Prob is not range checked.
type Scenario struct {
	Text string  `json:"text" yaml:"text"`
	Prob float64 `json:"prob" yaml:"prob"`
	Plan string  `json:"plan" yaml:"plan"`
}

// Benefit is a possible upside of the situation.
type Benefit struct {
	Text string `json:"text" yaml:"text"`
}

// NewDocument returns an empty document whose entry list encodes as [].
func NewDocument() Document {
	return Document{Entries: []Entry{}}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{Entries: make([]Entry, len(d.Entries))}
	for i, e := range d.Entries {
		out.Entries[i] = e.Clone()
	}
	return out
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	out := e
	out.Scenarios = append([]Scenario{}, e.Scenarios...)
	out.Benefits = append([]Benefit{}, e.Benefits...)
	return out
}

// fillSlices replaces nil slices with empty ones so JSON never carries null
// where a list is expected.
func (d *Document) fillSlices() {
	if d.Entries == nil {
		d.Entries = []Entry{}
	}
	for i := range d.Entries {
		if d.Entries[i].Scenarios == nil {
			d.Entries[i].Scenarios = []Scenario{}
		}
		if d.Entries[i].Benefits == nil {
			d.Entries[i].Benefits = []Benefit{}
		}
	}
}

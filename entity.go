package sheetboard

// Operation is a store operation an entity may expose
type Operation int

const (
	OpList Operation = 1 << iota
	OpCreate
	OpUpdate
	OpDelete
)

// Entity describes one record type and the sheet tab it lives in
type Entity struct {
	Name          string            // URL path segment, e.g. "jobs"
	Sheet         string            // Sheet tab title, e.g. "Jobs"
	Label         string            // Singular label used in messages, e.g. "Job"
	LastColumn    string            // Last column of the data range; a fixed ceiling, not computed
	IDColumn      string            // Column holding the record identifier
	GenerateID    bool              // Generate an identifier on create when the input has none
	CreatedColumn string            // Column defaulted to the creation time on create
	Headers       []string          // Column order used when appending new rows
	Defaults      map[string]string // Literal defaults applied on create
	Operations    Operation         // Operations exposed for this entity
}

// Allows reports whether op is exposed for the entity
func (e Entity) Allows(op Operation) bool {
	return e.Operations&op != 0
}

var (
	Jobs = Entity{
		Name:          "jobs",
		Sheet:         "Jobs",
		Label:         "Job",
		LastColumn:    "Z",
		IDColumn:      "id",
		GenerateID:    true,
		CreatedColumn: "createdAt",
		Headers: []string{
			"id", "title", "company", "location", "type", "salary",
			"description", "requirements", "postedBy", "createdAt", "updatedAt",
		},
		Operations: OpList | OpCreate | OpUpdate | OpDelete,
	}

	Supporters = Entity{
		Name:          "supporters",
		Sheet:         "Supporters",
		Label:         "Supporter",
		LastColumn:    "F",
		IDColumn:      "userId",
		CreatedColumn: "supportedAt",
		Headers:       []string{"userId", "name", "email", "amount", "supportedAt", "isSupporter"},
		Defaults: map[string]string{
			"amount":      "0",
			"isSupporter": "true",
		},
		Operations: OpList | OpCreate | OpDelete,
	}

	Spotlight = Entity{
		Name:       "spotlight",
		Sheet:      "Spotlight",
		Label:      "Spotlight entry",
		LastColumn: "D",
		IDColumn:   "jobId",
		Headers:    []string{"jobId", "priority", "paid"},
		Operations: OpList,
	}

	PostingRequests = Entity{
		Name:          "posting-requests",
		Sheet:         "PostingRequests",
		Label:         "Posting request",
		LastColumn:    "G",
		IDColumn:      "id",
		CreatedColumn: "createdAt",
		Headers:       []string{"id", "company", "jobTitle", "amountPaid", "status", "createdAt"},
		Operations:    OpList,
	}
)

// Entities returns every known entity
func Entities() []Entity {
	return []Entity{Jobs, Supporters, Spotlight, PostingRequests}
}

// EntityByName looks up an entity by its URL name
func EntityByName(name string) (Entity, bool) {
	for _, e := range Entities() {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

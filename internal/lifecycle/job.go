package lifecycle

// Job publication lifecycle:
//
//	created ──► published ──► closedForApplication ──► shortlisted ──► interview ──► offerSent
//	                                   │                                   ▲             ▲
//	                                   ├───────────────────────────────────┘             │
//	                                   └─────────────────────────────────────────────────┘
//
// CLOSE leads from every non-terminal status to closed, which is terminal.

const (
	JobCreated              Status = "created"
	JobPublished            Status = "published"
	JobClosedForApplication Status = "closedForApplication"
	JobShortlisted          Status = "shortlisted"
	JobInterview            Status = "interview"
	JobOfferSent            Status = "offerSent"
	JobClosed               Status = "closed"
)

const (
	ActionPublish             Action = "PUBLISH"
	ActionClose               Action = "CLOSE"
	ActionCloseForApplication Action = "CLOSE_FOR_APPLICATION"
	ActionJobShortlist        Action = "SHORTLIST"
	ActionJobInterview        Action = "INTERVIEW"
	ActionJobOfferSent        Action = "OFFER_SENT"
)

// JobTable is the process-wide job transition table.
var JobTable = MustTable(Definition{
	Entity:  "job",
	Initial: JobCreated,
	Statuses: []Status{
		JobCreated, JobPublished, JobClosedForApplication,
		JobShortlisted, JobInterview, JobOfferSent, JobClosed,
	},
	Terminal: []Status{JobClosed},
	Edges: []Edge{
		{JobCreated, ActionPublish, JobPublished},
		{JobCreated, ActionClose, JobClosed},

		{JobPublished, ActionCloseForApplication, JobClosedForApplication},
		{JobPublished, ActionClose, JobClosed},

		{JobClosedForApplication, ActionJobShortlist, JobShortlisted},
		{JobClosedForApplication, ActionJobInterview, JobInterview},
		{JobClosedForApplication, ActionJobOfferSent, JobOfferSent},
		{JobClosedForApplication, ActionClose, JobClosed},

		{JobShortlisted, ActionJobInterview, JobInterview},
		{JobShortlisted, ActionClose, JobClosed},

		{JobInterview, ActionJobOfferSent, JobOfferSent},
		{JobInterview, ActionClose, JobClosed},

		{JobOfferSent, ActionClose, JobClosed},
	},
})

// JobPolicy decides job status changes.
type JobPolicy struct {
	table *Table
}

// NewJobPolicy returns a policy over JobTable.
func NewJobPolicy() JobPolicy { return JobPolicy{table: JobTable} }

// Table exposes the underlying table for read-only queries.
func (p JobPolicy) Table() *Table { return p.table }

// Apply validates action against current. Entering published asks the caller
// to stamp the publish time.
func (p JobPolicy) Apply(current Status, action Action) (Result, error) {
	to, err := p.table.Transition(current, action)
	if err != nil {
		return Result{}, err
	}
	res := Result{From: current, To: to, Effect: EffectNone}
	if to == JobPublished {
		res.Effect = EffectStampPublished
	}
	return res, nil
}

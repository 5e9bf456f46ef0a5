package lifecycle

// Job application review lifecycle:
//
//	submitted ──► shortlisted ──► interviewing ──► offer ──► hired
//	    │              │               │             │
//	    └──────────────┴───────────────┴─────────────┴──REJECT──► rejected
//
// hired and rejected are terminal.

const (
	AppSubmitted    Status = "submitted"
	AppShortlisted  Status = "shortlisted"
	AppInterviewing Status = "interviewing"
	AppOffer        Status = "offer"
	AppHired        Status = "hired"
	AppRejected     Status = "rejected"
)

const (
	ActionShortlist         Action = "SHORTLIST"
	ActionScheduleInterview Action = "SCHEDULE_INTERVIEW"
	ActionMakeOffer         Action = "MAKE_OFFER"
	ActionAcceptOffer       Action = "ACCEPT_OFFER"
	ActionReject            Action = "REJECT"
)

// ApplicationTable is the process-wide application transition table.
var ApplicationTable = MustTable(Definition{
	Entity:  "application",
	Initial: AppSubmitted,
	Statuses: []Status{
		AppSubmitted, AppShortlisted, AppInterviewing, AppOffer, AppHired, AppRejected,
	},
	Terminal: []Status{AppHired, AppRejected},
	Edges: []Edge{
		{AppSubmitted, ActionShortlist, AppShortlisted},
		{AppSubmitted, ActionReject, AppRejected},

		{AppShortlisted, ActionScheduleInterview, AppInterviewing},
		{AppShortlisted, ActionReject, AppRejected},

		{AppInterviewing, ActionMakeOffer, AppOffer},
		{AppInterviewing, ActionReject, AppRejected},

		{AppOffer, ActionAcceptOffer, AppHired},
		{AppOffer, ActionReject, AppRejected},
	},
})

// ApplicationPolicy decides application status changes.
type ApplicationPolicy struct {
	table *Table
}

// NewApplicationPolicy returns a policy over ApplicationTable.
func NewApplicationPolicy() ApplicationPolicy { return ApplicationPolicy{table: ApplicationTable} }

// Table exposes the underlying table for read-only queries.
func (p ApplicationPolicy) Table() *Table { return p.table }

// Apply validates action against current. Every accepted transition asks the
// caller to notify the applicant of the new status.
func (p ApplicationPolicy) Apply(current Status, action Action) (Result, error) {
	to, err := p.table.Transition(current, action)
	if err != nil {
		return Result{}, err
	}
	return Result{From: current, To: to, Effect: EffectNotifyApplicant}, nil
}

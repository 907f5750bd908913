package ability

// Action is the closed set of verbs a rule can grant.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionManage grants every other action on its subject.
	ActionManage Action = "manage"
)

// Subject is the closed set of resource types rules apply to.
type Subject string

const (
	SubjectUser     Subject = "USER"
	SubjectProfile  Subject = "PROFILE"
	SubjectBag      Subject = "BAG"
	SubjectSuitcase Subject = "SUITCASE"
	SubjectItem     Subject = "ITEM"
	// SubjectAll matches any subject.
	SubjectAll Subject = "ALL"
)

// Scope narrows a rule to the caller's own records or any record. Scope is
// carried in the rule set for callers that enforce ownership; Can itself does
// not evaluate it.
type Scope string

const (
	ScopeAny Scope = "any"
	ScopeOwn Scope = "own"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func IsValidRole(role string) bool {
	switch role {
	case string(RoleUser), string(RoleAdmin):
		return true
	default:
		return false
	}
}

func IsValidAction(action string) bool {
	switch Action(action) {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionManage:
		return true
	default:
		return false
	}
}

func IsValidSubject(subject string) bool {
	switch Subject(subject) {
	case SubjectUser, SubjectProfile, SubjectBag, SubjectSuitcase, SubjectItem, SubjectAll:
		return true
	default:
		return false
	}
}

// Rule permits one (action, subject) pair, optionally narrowed by scope.
type Rule struct {
	Action  Action  `json:"action"`
	Subject Subject `json:"subject"`
	Scope   Scope   `json:"scope"`
}

// RuleSet is an immutable collection of rules for one role.
type RuleSet []Rule

// Can reports whether some rule in the set permits the action on the subject.
// Ownership checks (scope "own") are the caller's concern; this answers "is
// this action+subject ever permitted for the role".
func (rs RuleSet) Can(action Action, subject Subject) bool {
	for _, rule := range rs {
		if rule.matches(action, subject) {
			return true
		}
	}
	return false
}

// ScopeFor returns the widest scope granted for the action on the subject,
// and false when no rule matches. "any" wins over "own".
func (rs RuleSet) ScopeFor(action Action, subject Subject) (Scope, bool) {
	scope, found := Scope(""), false
	for _, rule := range rs {
		if !rule.matches(action, subject) {
			continue
		}
		found = true
		if rule.Scope == ScopeAny {
			return ScopeAny, true
		}
		scope = rule.Scope
	}
	return scope, found
}

func (r Rule) matches(action Action, subject Subject) bool {
	actionOK := r.Action == action || r.Action == ActionManage
	subjectOK := r.Subject == subject || r.Subject == SubjectAll
	return actionOK && subjectOK
}

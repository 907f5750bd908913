package ability

// Resolver derives the rule set for a role. The static resolver maps roles in
// code; the row-backed resolver builds the same shape from stored
// role-permission rows. Both are deterministic: the same input always yields
// an equal rule set, and an unrecognized role yields an empty set rather than
// an error that could be mishandled into an allow.
type Resolver interface {
	ResolveForRole(role Role) RuleSet
}

// rolePermissions is the static role map. Order is fixed so resolved sets
// compare equal across calls.
var rolePermissions = map[Role]RuleSet{
	RoleAdmin: {
		{Action: ActionManage, Subject: SubjectAll, Scope: ScopeAny},
	},
	RoleUser: {
		{Action: ActionRead, Subject: SubjectUser, Scope: ScopeOwn},
		{Action: ActionUpdate, Subject: SubjectUser, Scope: ScopeOwn},
		{Action: ActionRead, Subject: SubjectProfile, Scope: ScopeOwn},
		{Action: ActionUpdate, Subject: SubjectProfile, Scope: ScopeOwn},
		{Action: ActionManage, Subject: SubjectBag, Scope: ScopeOwn},
		{Action: ActionManage, Subject: SubjectSuitcase, Scope: ScopeOwn},
		{Action: ActionManage, Subject: SubjectItem, Scope: ScopeOwn},
	},
}

// StaticResolver resolves rules from the in-code role map.
type StaticResolver struct{}

func NewStaticResolver() StaticResolver {
	return StaticResolver{}
}

func (StaticResolver) ResolveForRole(role Role) RuleSet {
	perms, ok := rolePermissions[role]
	if !ok {
		return RuleSet{}
	}
	// Copy so callers can never mutate the shared map entry.
	out := make(RuleSet, len(perms))
	copy(out, perms)
	return out
}

// PermissionRow is a persisted role-permission record, already loaded by the
// caller. Rows with an unknown action or subject are skipped so a bad row can
// only narrow permissions, never widen them.
type PermissionRow struct {
	Role    string
	Action  string
	Subject string
	Scope   string
}

// ResolveFromPermissionRows builds a rule set for the role from stored rows.
func ResolveFromPermissionRows(role Role, rows []PermissionRow) RuleSet {
	out := RuleSet{}
	for _, row := range rows {
		if Role(row.Role) != role {
			continue
		}
		if !IsValidAction(row.Action) || !IsValidSubject(row.Subject) {
			continue
		}
		scope := Scope(row.Scope)
		if scope != ScopeAny && scope != ScopeOwn {
			scope = ScopeOwn
		}
		out = append(out, Rule{
			Action:  Action(row.Action),
			Subject: Subject(row.Subject),
			Scope:   scope,
		})
	}
	return out
}

// RowResolver resolves rules from a pre-loaded set of permission rows.
type RowResolver struct {
	rows []PermissionRow
}

func NewRowResolver(rows []PermissionRow) RowResolver {
	copied := make([]PermissionRow, len(rows))
	copy(copied, rows)
	return RowResolver{rows: copied}
}

func (r RowResolver) ResolveForRole(role Role) RuleSet {
	return ResolveFromPermissionRows(role, r.rows)
}

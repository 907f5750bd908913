package ability_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"packly/pkg/ability"
)

var allActions = []ability.Action{
	ability.ActionRead, ability.ActionCreate, ability.ActionUpdate,
	ability.ActionDelete, ability.ActionManage,
}

var allSubjects = []ability.Subject{
	ability.SubjectUser, ability.SubjectProfile, ability.SubjectBag,
	ability.SubjectSuitcase, ability.SubjectItem, ability.SubjectAll,
}

func TestStaticResolverDeterminism(t *testing.T) {
	resolver := ability.NewStaticResolver()

	for _, role := range []ability.Role{ability.RoleUser, ability.RoleAdmin} {
		first := resolver.ResolveForRole(role)
		second := resolver.ResolveForRole(role)
		require.Equal(t, first, second, "role %s must resolve deterministically", role)
	}
}

func TestStaticResolverUnknownRole(t *testing.T) {
	resolver := ability.NewStaticResolver()

	rules := resolver.ResolveForRole(ability.Role("INTRUDER"))
	require.NotNil(t, rules)
	require.Empty(t, rules)

	for _, action := range allActions {
		for _, subject := range allSubjects {
			require.False(t, rules.Can(action, subject),
				"empty rule set must deny %s on %s", action, subject)
		}
	}
}

func TestStaticResolverReturnsCopies(t *testing.T) {
	resolver := ability.NewStaticResolver()

	rules := resolver.ResolveForRole(ability.RoleUser)
	rules[0].Action = ability.ActionDelete

	fresh := resolver.ResolveForRole(ability.RoleUser)
	require.Equal(t, ability.ActionRead, fresh[0].Action)
}

func TestAdminCanEverything(t *testing.T) {
	rules := ability.NewStaticResolver().ResolveForRole(ability.RoleAdmin)

	for _, action := range allActions {
		for _, subject := range allSubjects {
			require.True(t, rules.Can(action, subject),
				"admin must be allowed %s on %s", action, subject)
		}
	}
}

func TestUserRuleMatrix(t *testing.T) {
	rules := ability.NewStaticResolver().ResolveForRole(ability.RoleUser)

	allowed := map[ability.Subject][]ability.Action{
		ability.SubjectUser:     {ability.ActionRead, ability.ActionUpdate},
		ability.SubjectProfile:  {ability.ActionRead, ability.ActionUpdate},
		ability.SubjectBag:      allActions,
		ability.SubjectSuitcase: allActions,
		ability.SubjectItem:     allActions,
		ability.SubjectAll:      {},
	}

	for _, subject := range allSubjects {
		permitted := map[ability.Action]bool{}
		for _, a := range allowed[subject] {
			permitted[a] = true
		}
		for _, action := range allActions {
			got := rules.Can(action, subject)
			require.Equal(t, permitted[action], got,
				"user %s on %s: expected %v", action, subject, permitted[action])
		}
	}
}

func TestManageWildcardCoversAllActions(t *testing.T) {
	rules := ability.RuleSet{
		{Action: ability.ActionManage, Subject: ability.SubjectBag, Scope: ability.ScopeOwn},
	}

	for _, action := range allActions {
		require.True(t, rules.Can(action, ability.SubjectBag))
	}
	require.False(t, rules.Can(ability.ActionRead, ability.SubjectItem))
}

func TestScopeFor(t *testing.T) {
	t.Run("no match", func(t *testing.T) {
		rules := ability.RuleSet{}
		_, ok := rules.ScopeFor(ability.ActionRead, ability.SubjectBag)
		require.False(t, ok)
	})

	t.Run("own only", func(t *testing.T) {
		rules := ability.RuleSet{
			{Action: ability.ActionRead, Subject: ability.SubjectBag, Scope: ability.ScopeOwn},
		}
		scope, ok := rules.ScopeFor(ability.ActionRead, ability.SubjectBag)
		require.True(t, ok)
		require.Equal(t, ability.ScopeOwn, scope)
	})

	t.Run("any wins over own", func(t *testing.T) {
		rules := ability.RuleSet{
			{Action: ability.ActionRead, Subject: ability.SubjectBag, Scope: ability.ScopeOwn},
			{Action: ability.ActionManage, Subject: ability.SubjectAll, Scope: ability.ScopeAny},
		}
		scope, ok := rules.ScopeFor(ability.ActionRead, ability.SubjectBag)
		require.True(t, ok)
		require.Equal(t, ability.ScopeAny, scope)
	})
}

func TestResolveFromPermissionRows(t *testing.T) {
	rows := []ability.PermissionRow{
		{Role: "USER", Action: "read", Subject: "BAG", Scope: "own"},
		{Role: "USER", Action: "create", Subject: "BAG"},
		{Role: "USER", Action: "fly", Subject: "BAG", Scope: "own"},
		{Role: "USER", Action: "read", Subject: "SPACESHIP", Scope: "own"},
		{Role: "ADMIN", Action: "manage", Subject: "ALL", Scope: "any"},
	}

	t.Run("filters by role", func(t *testing.T) {
		rules := ability.ResolveFromPermissionRows(ability.RoleAdmin, rows)
		require.Len(t, rules, 1)
		require.True(t, rules.Can(ability.ActionDelete, ability.SubjectItem))
	})

	t.Run("skips invalid rows and defaults scope to own", func(t *testing.T) {
		rules := ability.ResolveFromPermissionRows(ability.RoleUser, rows)
		require.Len(t, rules, 2)

		scope, ok := rules.ScopeFor(ability.ActionCreate, ability.SubjectBag)
		require.True(t, ok)
		require.Equal(t, ability.ScopeOwn, scope)
	})

	t.Run("unknown role yields empty set", func(t *testing.T) {
		rules := ability.ResolveFromPermissionRows(ability.Role("GHOST"), rows)
		require.Empty(t, rules)
	})
}

func TestRowResolverMatchesStaticShape(t *testing.T) {
	rows := []ability.PermissionRow{
		{Role: "ADMIN", Action: "manage", Subject: "ALL", Scope: "any"},
	}
	resolver := ability.NewRowResolver(rows)

	static := ability.NewStaticResolver().ResolveForRole(ability.RoleAdmin)
	dynamic := resolver.ResolveForRole(ability.RoleAdmin)
	require.Equal(t, static, dynamic)
}

package auth

// Principal is the request-scoped authenticated identity plus its resolved
// authority strings. Each granted role contributes its name, verbatim, as an
// authority.
type Principal struct {
	User        *User
	Authorities map[string]struct{}
}

// NewPrincipal resolves the user's roles into an authority set.
func NewPrincipal(user *User) Principal {
	set := make(map[string]struct{}, len(user.Roles))
	for _, role := range user.Roles {
		set[string(role.Name)] = struct{}{}
	}
	return Principal{User: user, Authorities: set}
}

// HasAuthority reports whether the principal holds the authority string.
func (p Principal) HasAuthority(authority string) bool {
	_, ok := p.Authorities[authority]
	return ok
}

// HasRole reports whether the principal holds the role.
func (p Principal) HasRole(role RoleName) bool {
	return p.HasAuthority(string(role))
}

// AuthorityList returns the authority strings in stable order for responses.
func (p Principal) AuthorityList() []string {
	out := make([]string, 0, len(p.Authorities))
	for _, role := range KnownRoles {
		if p.HasRole(role) {
			out = append(out, string(role))
		}
	}
	return out
}

// Requirement is a route's declared access rule, fixed at registration time:
// any authenticated principal, one role, a disjunction of roles, or a
// conjunction of a role and an explicit authority.
type Requirement struct {
	anyAuthenticated bool
	roles            []RoleName
	authority        string
}

// AnyAuthenticated permits any request with a bound principal.
func AnyAuthenticated() Requirement {
	return Requirement{anyAuthenticated: true}
}

// RequireRole permits principals holding the role.
func RequireRole(role RoleName) Requirement {
	return Requirement{roles: []RoleName{role}}
}

// RequireAnyRole permits principals holding at least one of the roles.
func RequireAnyRole(roles ...RoleName) Requirement {
	return Requirement{roles: roles}
}

// RequireRoleWithAuthority permits principals holding both the role and the
// explicit authority string.
func RequireRoleWithAuthority(role RoleName, authority string) Requirement {
	return Requirement{roles: []RoleName{role}, authority: authority}
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	// DenyUnauthenticated means no principal was bound; surfaced as an
	// authentication failure (401), never as forbidden.
	DenyUnauthenticated
	// DenyForbidden means a principal exists but its authority set does not
	// satisfy the requirement.
	DenyForbidden
)

// Decide evaluates the requirement against the bound principal, nil meaning
// no principal was bound. Matching is literal; there is no role hierarchy, so
// ROLE_ADMIN does not imply ROLE_MODERATOR.
func Decide(p *Principal, req Requirement) Decision {
	if p == nil {
		return DenyUnauthenticated
	}
	if req.anyAuthenticated {
		return Allow
	}
	holdsRole := false
	for _, role := range req.roles {
		if p.HasRole(role) {
			holdsRole = true
			break
		}
	}
	if !holdsRole {
		return DenyForbidden
	}
	if req.authority != "" && !p.HasAuthority(req.authority) {
		return DenyForbidden
	}
	return Allow
}

package service

// StaticAuthorizer authorizes owners on their own positions plus a fixed set
// of administrator accounts acting on anyone's behalf. Deployments with an
// external identity service supply their own Authorizer instead.
type StaticAuthorizer struct {
	admins map[string]struct{}
}

// NewStaticAuthorizer creates an authorizer with the given admin accounts.
func NewStaticAuthorizer(admins []string) *StaticAuthorizer {
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return &StaticAuthorizer{admins: set}
}

func (a *StaticAuthorizer) IsAuthorized(caller, subject string) bool {
	if caller == "" {
		return false
	}
	if caller == subject {
		return true
	}
	return a.IsAdmin(caller)
}

func (a *StaticAuthorizer) IsAdmin(caller string) bool {
	_, ok := a.admins[caller]
	return ok
}

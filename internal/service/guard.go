package service

// Caller is the identity resolved from a request. A nil *Caller means the
// request carried no valid session.
type Caller struct {
	UserID  int64
	IsAdmin bool
}

// Action names an operation checked by the Guard.
type Action string

const (
	ActionTrainWrite     Action = "train:write"
	ActionRouteWrite     Action = "route:write"
	ActionBookingCreate  Action = "booking:create"
	ActionBookingRead    Action = "booking:read"
	ActionBookingUpdate  Action = "booking:update"
	ActionBookingCancel  Action = "booking:cancel"
	ActionBookingDelete  Action = "booking:delete"
	ActionBookingListOwn Action = "booking:list-own"
	ActionBookingListAll Action = "booking:list-all"
	ActionUserRead       Action = "user:read"
	ActionUserUpdate     Action = "user:update"
	ActionUserDelete     Action = "user:delete"
	ActionUserList       Action = "user:list"
)

// DefaultAdminActions are reserved to admins regardless of ownership.
func DefaultAdminActions() []Action {
	return []Action{
		ActionTrainWrite,
		ActionRouteWrite,
		ActionBookingDelete,
		ActionBookingListAll,
		ActionUserDelete,
		ActionUserList,
	}
}

// Guard decides whether a caller may perform an action on a resource.
type Guard struct {
	adminOnly map[Action]struct{}
}

// NewGuard creates a Guard that reserves adminActions to admins.
func NewGuard(adminActions []Action) *Guard {
	set := make(map[Action]struct{}, len(adminActions))
	for _, a := range adminActions {
		set[a] = struct{}{}
	}
	return &Guard{adminOnly: set}
}

// Authorize returns nil when allowed, ErrUnauthenticated when caller is nil
// and ErrForbidden otherwise. ownerID is the owning user of the resource, or
// nil for resources without an owner.
func (g *Guard) Authorize(caller *Caller, action Action, ownerID *int64) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if caller.IsAdmin {
		return nil
	}
	if _, ok := g.adminOnly[action]; ok {
		return ErrForbidden
	}
	if ownerID != nil && *ownerID != caller.UserID {
		return ErrForbidden
	}
	return nil
}

func owner(id int64) *int64 {
	return &id
}

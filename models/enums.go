package models

import "errors"

type Purpose string

const (
	PurposeTeamBifurcation  Purpose = "TeamBifurcation"
	PurposeProjectMarketing Purpose = "ProjectMarketing"
)

func (p *Purpose) UnmarshalText(b []byte) error {
	switch string(b) {
	case "TeamBifurcation":
		*p = PurposeTeamBifurcation
	case "ProjectMarketing":
		*p = PurposeProjectMarketing
	default:
		return errors.New("invalid purpose")
	}
	return nil
}

type DispatchState string

const (
	DispatchStateCreated    DispatchState = "Created"
	DispatchStateDispatched DispatchState = "Dispatched"
	DispatchStateLRAssigned DispatchState = "LRAssigned"
	DispatchStatePODSent    DispatchState = "PODSent"
)

// rank orders the states so transitions can be checked as strictly forward.
func (s DispatchState) rank() int {
	switch s {
	case DispatchStateCreated:
		return 0
	case DispatchStateDispatched:
		return 1
	case DispatchStateLRAssigned:
		return 2
	case DispatchStatePODSent:
		return 3
	}
	return -1
}

// AtLeast reports whether s is the given state or a later one.
func (s DispatchState) AtLeast(other DispatchState) bool {
	return s.rank() >= other.rank()
}

type EmployeeRole string

const (
	RoleAdmin           EmployeeRole = "Admin"
	RoleRegionalManager EmployeeRole = "RegionalManager"
	RoleBranchManager   EmployeeRole = "BranchManager"
	RoleAreaManager     EmployeeRole = "AreaManager"
	RoleEmployee        EmployeeRole = "Employee"
)

// AllocationMode selects how a NewAllocation's lines are interpreted.
type AllocationMode string

const (
	// One item, many (employee, qty) pairs. One node per employee, each with
	// its own assignment number, because goods-receipt happens per recipient.
	ModeItemToEmployees AllocationMode = "ItemToEmployees"
	// One employee, many (item, qty) pairs. One node per item, all sharing a
	// single assignment number so one LR update covers the whole batch.
	ModeEmployeeToItems AllocationMode = "EmployeeToItems"
)

func (m *AllocationMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ItemToEmployees":
		*m = ModeItemToEmployees
	case "EmployeeToItems":
		*m = ModeEmployeeToItems
	default:
		return errors.New("invalid allocation mode")
	}
	return nil
}

type OutboxEventType string

const (
	OutboxEventAllocationCreated OutboxEventType = "AllocationCreated"
	OutboxEventPODSent           OutboxEventType = "PODSent"
)

package models

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusInProduction OrderStatus = "in_production"
	StatusBlocked      OrderStatus = "blocked"
	StatusReadyToShip  OrderStatus = "ready_to_ship"
	StatusShipped      OrderStatus = "shipped"
)

// OrderStatuses lists every order status.
var OrderStatuses = []OrderStatus{StatusInProduction, StatusBlocked, StatusReadyToShip, StatusShipped}

// ActiveStatuses are the statuses of orders still on the shop floor.
var ActiveStatuses = []OrderStatus{StatusInProduction, StatusBlocked}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Active reports whether the order is still being produced.
func (s OrderStatus) Active() bool {
	return s == StatusInProduction || s == StatusBlocked
}

// PhaseStatus is the state of one production phase. It only moves forward.
type PhaseStatus string

const (
	PhaseToDo      PhaseStatus = "to_do"
	PhaseCompleted PhaseStatus = "completed"
)

// Severity grades a reported problem.
type Severity string

const (
	SeverityLow          Severity = "low"
	SeverityMedium       Severity = "medium"
	SeverityHighBlocking Severity = "high_blocking"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHighBlocking}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Rank orders severities from least (1) to most (3) serious; 0 is unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHighBlocking:
		return 3
	}
	return 0
}

// Blocking reports whether reporting a problem of this severity blocks the order.
func (s Severity) Blocking() bool {
	return s == SeverityHighBlocking
}

// ProblemType categorises a reported problem.
type ProblemType string

const (
	ProblemDefectiveMaterial ProblemType = "defective_material"
	ProblemWrongMeasurements ProblemType = "wrong_measurements"
	ProblemMachineFailure    ProblemType = "machine_failure"
	ProblemMissingMaterial   ProblemType = "missing_material"
	ProblemOther             ProblemType = "other"
)

var ProblemTypes = []ProblemType{
	ProblemDefectiveMaterial,
	ProblemWrongMeasurements,
	ProblemMachineFailure,
	ProblemMissingMaterial,
	ProblemOther,
}

func (p ProblemType) Valid() bool {
	for _, pt := range ProblemTypes {
		if p == pt {
			return true
		}
	}
	return false
}

// Role is what a user may do in the system.
type Role string

const (
	RoleOffice   Role = "office"
	RoleOperator Role = "operator"
)

func (r Role) Valid() bool {
	return r == RoleOffice || r == RoleOperator
}

// SubframeDeliveryType says how an early subframe leaves the shop.
type SubframeDeliveryType string

const (
	SubframeAssembled   SubframeDeliveryType = "assembled"
	SubframeAssemblyKit SubframeDeliveryType = "assembly_kit"
)

func (t SubframeDeliveryType) Valid() bool {
	return t == SubframeAssembled || t == SubframeAssemblyKit
}

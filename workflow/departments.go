package workflow

// Department is a shop-floor unit that operators are assigned to.
type Department string

const (
	DeptPunchDalcos     Department = "punch_dalcos"
	DeptPunchEuromac    Department = "punch_euromac"
	DeptBending         Department = "bending"
	DeptWeldingAssembly Department = "welding_assembly"
	DeptLining          Department = "lining"
	DeptPacking         Department = "packing"
	DeptPaint           Department = "paint"
	DeptReceiving       Department = "receiving"
)

// Departments lists every department an operator can be assigned to.
var Departments = []Department{
	DeptPunchDalcos,
	DeptPunchEuromac,
	DeptBending,
	DeptWeldingAssembly,
	DeptLining,
	DeptPacking,
	DeptPaint,
	DeptReceiving,
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	for _, dept := range Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// phaseDepartments maps a phase name to the department allowed to complete it.
// Phases missing from the map are not gated by department.
var phaseDepartments = map[string]Department{
	PhaseSubframePunch:    DeptPunchDalcos,
	PhaseFramePunch:       DeptPunchDalcos,
	PhaseBarCut:           DeptPunchDalcos,
	PhaseBodyPunch:        DeptPunchEuromac,
	PhaseSubframeBend:     DeptBending,
	PhaseFrameBend:        DeptBending,
	PhaseAccessoryBend:    DeptBending,
	PhaseSubframeAssemble: DeptWeldingAssembly,
	PhaseFrameAssemble:    DeptWeldingAssembly,
	PhaseWeldAssemble:     DeptWeldingAssembly,
	PhaseInteriorLining:   DeptLining,
	PhaseExteriorLining:   DeptLining,
	PhaseFitAndPack:       DeptPacking,
	PhaseExteriorPaint:    DeptPaint,
}

// DepartmentFor returns the department owning phase. ok is false when the
// phase has no department restriction.
func DepartmentFor(phase string) (dept Department, ok bool) {
	dept, ok = phaseDepartments[phase]
	return dept, ok
}

// PhasesForDepartments returns the phase names any of depts may complete.
// Phases without a department are not included.
func PhasesForDepartments(depts []Department) []string {
	allowed := make(map[Department]bool, len(depts))
	for _, d := range depts {
		allowed[d] = true
	}

	var names []string
	for _, name := range allPhaseNames {
		if d, ok := phaseDepartments[name]; ok && allowed[d] {
			names = append(names, name)
		}
	}
	return names
}

// UngatedPhases returns the phase names that have no owning department.
func UngatedPhases() []string {
	var names []string
	for _, name := range allPhaseNames {
		if _, ok := phaseDepartments[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// allPhaseNames keeps lookups deterministic.
var allPhaseNames = []string{
	PhaseSubframePunch,
	PhaseSubframeBend,
	PhaseSubframeAssemble,
	PhaseFramePunch,
	PhaseFrameBend,
	PhaseFrameAssemble,
	PhaseBarCut,
	PhaseExteriorPaint,
	PhaseBodyPunch,
	PhaseAccessoryBend,
	PhaseWeldAssemble,
	PhaseInteriorLining,
	PhaseExteriorLining,
	PhaseFitAndPack,
	PhaseReturnToOffice,
}

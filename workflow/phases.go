package workflow

import "fmt"

// FrameType is the frame construction chosen for an order.
type FrameType string

const (
	FrameStandardWithSubframe     FrameType = "standard_with_subframe"
	FrameRestructureL             FrameType = "restructure_L"
	FrameRestructureZ             FrameType = "restructure_Z"
	FrameSubframeSuppliedByClient FrameType = "subframe_supplied_by_client"
)

// FrameTypes lists every accepted frame type.
var FrameTypes = []FrameType{
	FrameStandardWithSubframe,
	FrameRestructureL,
	FrameRestructureZ,
	FrameSubframeSuppliedByClient,
}

// Valid reports whether f is one of the known frame types.
func (f FrameType) Valid() bool {
	for _, ft := range FrameTypes {
		if f == ft {
			return true
		}
	}
	return false
}

// Production phase names. The order phases are generated in is the
// production sequence.
const (
	PhaseSubframePunch    = "subframe-punch"
	PhaseSubframeBend     = "subframe-bend"
	PhaseSubframeAssemble = "subframe-assemble"
	PhaseFramePunch       = "frame-punch"
	PhaseFrameBend        = "frame-bend"
	PhaseFrameAssemble    = "frame-assemble"
	PhaseBarCut           = "bar-cut"
	PhaseExteriorPaint    = "exterior-paint"
	PhaseBodyPunch        = "body-punch"
	PhaseAccessoryBend    = "accessory-bend"
	PhaseWeldAssemble     = "weld-assemble"
	PhaseInteriorLining   = "interior-lining"
	PhaseExteriorLining   = "exterior-lining"
	PhaseFitAndPack       = "fit-and-pack"
	PhaseReturnToOffice   = "return-to-office"
)

// bodyPhases run for every order after the frame phases.
var bodyPhases = []string{
	PhaseBodyPunch,
	PhaseAccessoryBend,
	PhaseWeldAssemble,
	PhaseInteriorLining,
	PhaseExteriorLining,
	PhaseFitAndPack,
	PhaseReturnToOffice,
}

// PlanPhases returns the ordered phase names for a new order.
func PlanPhases(frame FrameType, paintRequired bool) ([]string, error) {
	var phases []string

	switch frame {
	case FrameStandardWithSubframe:
		phases = append(phases,
			PhaseSubframePunch, PhaseSubframeBend, PhaseSubframeAssemble,
			PhaseFramePunch, PhaseFrameBend, PhaseFrameAssemble,
		)
	case FrameRestructureL, FrameRestructureZ:
		// bars arrive already bent
		phases = append(phases, PhaseBarCut, PhaseFrameAssemble)
	case FrameSubframeSuppliedByClient:
		phases = append(phases, PhaseFramePunch, PhaseFrameBend, PhaseFrameAssemble)
	default:
		return nil, fmt.Errorf("unknown frame type %q", frame)
	}

	if paintRequired {
		phases = append(phases, PhaseExteriorPaint)
	}

	return append(phases, bodyPhases...), nil
}

package analysis

import (
	"fmt"

	"github.com/edp1096/toy-phasor/pkg/matrix"
)

// NodalAnalysis solves the full MNA system once.
type NodalAnalysis struct{ BaseAnalysis }

func NewNodal(backend matrix.Backend) *NodalAnalysis {
	return &NodalAnalysis{BaseAnalysis: *NewBaseAnalysis(backend)}
}

func (na *NodalAnalysis) Execute() error {
	if na.Netlist == nil {
		return fmt.Errorf("netlist not set")
	}

	sol, err := na.solve(na.Netlist, true)
	if err != nil {
		return err
	}
	na.StoreResult(sol)
	return nil
}

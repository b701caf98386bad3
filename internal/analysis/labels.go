package analysis

// band upper bounds (exclusive); the last band is everything >= 95.
var bandLimits = [...]float64{20, 45, 75, 95}

// Labels are shown while the analysis runs, indexed by StepFor.
var Labels = [...]string{
	"Analisando seu perfil…",
	"Verificando seu Instagram…",
	"Calculando seu potencial de crescimento…",
	"Comparando com criadores da comunidade…",
	"Perfil aprovado!",
}

// ApprovedStep is the terminal band.
const ApprovedStep = len(Labels) - 1

// StepFor maps a progress value to its display band, 0 through 4.
func StepFor(progress float64) int {
	for i, limit := range bandLimits {
		if progress < limit {
			return i
		}
	}
	return ApprovedStep
}

// LabelFor is the display text for a progress value.
func LabelFor(progress float64) string {
	return Labels[StepFor(progress)]
}

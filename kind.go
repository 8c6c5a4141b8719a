package pipec

// Kind is the bind point of a pipeline.
type Kind int

const (
	// KindGraphics is a rasterization pipeline.
	KindGraphics Kind = iota

	// KindCompute is a single-stage compute pipeline.
	KindCompute
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGraphics:
		return "Graphics"
	case KindCompute:
		return "Compute"
	default:
		return "Unknown"
	}
}

package constant

// Elements tracked by the laboratory. Concentration search and statistics
// only accept these.
var Elements = []string{"Fe", "Ni", "Cu"}

// Workflow defaults applied to freshly created probes.
const (
	DefaultStatusID = 1
	DefaultPriority = 1
)

// State tags derived from the physical form of a sample. Kept in Russian:
// they are part of the laboratory's naming convention, not UI copy.
const (
	TagSolid    = "твердая"
	TagSolution = "жидкая"
)

// SolidMassFactor converts the mass/volume difference into the dry solid
// mass: solid = 1.5 * (sample_mass - volume).
const SolidMassFactor = 1.5

// MaxSnapshots is the retention limit for catalog snapshots.
const MaxSnapshots = 50

package domain

// Mode identifies one of the supported rail networks.
type Mode string

const (
	ModeTRA  Mode = "TRA"
	ModeTHSR Mode = "THSR"
)

// Modes lists the supported networks in lookup order. Conversation state
// lookups check TRA before THSR.
var Modes = []Mode{ModeTRA, ModeTHSR}

func (m Mode) String() string {
	return string(m)
}

// HasTrainTypes reports whether trains of this network carry a type
// category (express/local). Only TRA does.
func (m Mode) HasTrainTypes() bool {
	return m == ModeTRA
}

package projector

// Service bits advertised in a peer's version message.
const (
	ServiceNetwork uint64 = 1 << iota
	ServiceGetUTXO
	ServiceBloom
	ServiceWitness
	ServiceXThin
)

var serviceBitLabels = []struct {
	bit   uint64
	label string
}{
	{ServiceNetwork, "NODE_NETWORK"},
	{ServiceGetUTXO, "NODE_GETUTXO"},
	{ServiceBloom, "NODE_BLOOM"},
	{ServiceWitness, "NODE_WITNESS"},
	{ServiceXThin, "NODE_XTHIN"},
}

// ServiceLabels decodes a services bitmask into labels ordered by bit value.
// Bits without a label are ignored.
func ServiceLabels(services uint64) []string {
	labels := []string{}
	for _, sb := range serviceBitLabels {
		if services&sb.bit != 0 {
			labels = append(labels, sb.label)
		}
	}
	return labels
}

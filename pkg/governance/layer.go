package governance

// Layers lists all knowledge layers ordered broadest to narrowest.
func Layers() []KnowledgeLayer {
	return []KnowledgeLayer{LayerCompany, LayerOrg, LayerTeam, LayerProject}
}

// ApplicableLayers returns the ancestor-or-self layers whose policies apply
// to a validation targeting the given layer, ordered broadest to narrowest.
func ApplicableLayers(target KnowledgeLayer) []KnowledgeLayer {
	var layers []KnowledgeLayer
	for _, l := range Layers() {
		if l.AppliesTo(target) {
			layers = append(layers, l)
		}
	}
	return layers
}

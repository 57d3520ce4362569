package dii

// Parameter is one scored nutrient or food compound: its inflammatory
// weight and the population reference statistics used to normalize an
// individual's intake. Weight < 0 means the nutrient is inherently
// anti-inflammatory.
type Parameter struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Mean   float64 `json:"population_mean"`
	SD     float64 `json:"population_sd"` // strictly positive
}

// ParameterTable is an immutable set of scoring parameters, built once at
// startup and shared by all callers.
type ParameterTable struct {
	byID  map[string]Parameter
	order []string
}

// NewParameterTable builds a table from a parameter list. Order is
// preserved for deterministic iteration.
func NewParameterTable(params []Parameter) *ParameterTable {
	t := &ParameterTable{
		byID:  make(map[string]Parameter, len(params)),
		order: make([]string, 0, len(params)),
	}
	for _, p := range params {
		if _, dup := t.byID[p.ID]; dup {
			continue
		}
		t.byID[p.ID] = p
		t.order = append(t.order, p.ID)
	}
	return t
}

// Lookup returns the parameter for an id. Unknown ids are not an error:
// schema mappings may reference placeholder ids outside this table, which
// score as zero.
func (t *ParameterTable) Lookup(id string) (Parameter, bool) {
	p, ok := t.byID[id]
	return p, ok
}

// IDs returns the parameter ids in table order.
func (t *ParameterTable) IDs() []string {
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}

// Len returns the number of parameters.
func (t *ParameterTable) Len() int { return len(t.order) }

// DefaultParameters returns the 45 DII parameters, ordered from most
// pro-inflammatory to most anti-inflammatory. Means and standard deviations
// are the published global reference intakes.
func DefaultParameters() []Parameter {
	return []Parameter{
		{ID: "SATFAT_DII", Weight: 0.373, Mean: 28.6, SD: 8},
		{ID: "TOTALFAT_DII", Weight: 0.298, Mean: 71.4, SD: 19.4},
		{ID: "TRANSFAT_DII", Weight: 0.229, Mean: 3.15, SD: 3.75},
		{ID: "KCAL_DII", Weight: 0.18, Mean: 2056, SD: 338},
		{ID: "CHOLES_DII", Weight: 0.11, Mean: 279.4, SD: 51.2},
		{ID: "VITB12_DII", Weight: 0.106, Mean: 5.15, SD: 2.7},
		{ID: "CARB_DII", Weight: 0.097, Mean: 272.2, SD: 40},
		{ID: "IRON_DII", Weight: 0.032, Mean: 13.35, SD: 3.71},
		{ID: "PROTEIN_DII", Weight: 0.021, Mean: 79.4, SD: 13.9},
		{ID: "MUFA_DII", Weight: -0.009, Mean: 27, SD: 6.1},
		{ID: "ROSEMARY_DII", Weight: -0.013, Mean: 1, SD: 15},
		{ID: "RIBOFLAVIN_DII", Weight: -0.068, Mean: 1.7, SD: 0.79},
		{ID: "THIAMIN_DII", Weight: -0.098, Mean: 1.7, SD: 0.66},
		{ID: "THYME_DII", Weight: -0.102, Mean: 0.33, SD: 0.99},
		{ID: "CAFFEINE_DII", Weight: -0.11, Mean: 8.05, SD: 6.67},
		{ID: "ANTHOC_DII", Weight: -0.131, Mean: 18.05, SD: 21.14},
		{ID: "PEPPER_DII", Weight: -0.131, Mean: 10, SD: 7.07},
		{ID: "EUGENOL_DII", Weight: -0.14, Mean: 0.01, SD: 0.08},
		{ID: "SAFFRON_DII", Weight: -0.14, Mean: 0.37, SD: 1.78},
		{ID: "N6FAT_DII", Weight: -0.159, Mean: 10.8, SD: 7.5},
		{ID: "FOLICACID_DII", Weight: -0.19, Mean: 273, SD: 70.7},
		{ID: "SE_DII", Weight: -0.191, Mean: 67, SD: 25.1},
		{ID: "NIACIN_DII", Weight: -0.246, Mean: 25.9, SD: 11.77},
		{ID: "FLAVONONES_DII", Weight: -0.25, Mean: 11.7, SD: 3.82},
		{ID: "ALCOHOL_DII", Weight: -0.278, Mean: 13.98, SD: 3.72},
		{ID: "ONION_DII", Weight: -0.301, Mean: 35.9, SD: 18.4},
		{ID: "ZN_DII", Weight: -0.313, Mean: 9.84, SD: 2.19},
		{ID: "PUFA_DII", Weight: -0.337, Mean: 13.88, SD: 3.76},
		{ID: "VITB6_DII", Weight: -0.365, Mean: 1.47, SD: 0.74},
		{ID: "VITA_DII", Weight: -0.401, Mean: 983.9, SD: 518.6},
		{ID: "GARLIC_DII", Weight: -0.412, Mean: 4.35, SD: 2.9},
		{ID: "FLA3OL_DII", Weight: -0.415, Mean: 95.8, SD: 85.9},
		{ID: "VITE_DII", Weight: -0.419, Mean: 8.73, SD: 1.49},
		{ID: "VITC_DII", Weight: -0.424, Mean: 118.2, SD: 43.46},
		{ID: "N3FAT_DII", Weight: -0.436, Mean: 1.06, SD: 1.06},
		{ID: "VITD_DII", Weight: -0.446, Mean: 6.26, SD: 2.21},
		{ID: "GINGER_DII", Weight: -0.453, Mean: 59, SD: 63.2},
		{ID: "FLAVONOLS_DII", Weight: -0.467, Mean: 17.7, SD: 6.79},
		{ID: "MG_DII", Weight: -0.484, Mean: 310.1, SD: 139.4},
		{ID: "TEA_DII", Weight: -0.536, Mean: 1.69, SD: 1.53},
		{ID: "BCAROTENE_DII", Weight: -0.584, Mean: 3718, SD: 1720},
		{ID: "ISOFLAVONES_DII", Weight: -0.593, Mean: 1.2, SD: 0.2},
		{ID: "FLAVONES_DII", Weight: -0.616, Mean: 1.55, SD: 0.07},
		{ID: "FIBER_DII", Weight: -0.663, Mean: 18.8, SD: 4.9},
		{ID: "TURMERIC_DII", Weight: -0.785, Mean: 533.6, SD: 754.3},
	}
}

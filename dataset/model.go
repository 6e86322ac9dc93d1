package dataset

// Resolution levels that carry special meaning. Every other level label is an
// itemized outcome; for a given canton, year and offence type the itemized
// rows add up to the LevelTotal row.
const (
	LevelTotal    = "Total de casos"
	LevelResolved = "Resolts"
)

// National is the canton label used for the country-wide aggregate rows.
const National = "Switzerland"

// Record holds one row of the crime table: one (canton, year, offence type,
// resolution level) combination. Numeric cells that were blank in the source
// file are NaN.
type Record struct {
	Year       int     `json:"year"`
	Canton     string  `json:"canton"`
	Offence    string  `json:"offence"`
	Level      string  `json:"level"`
	Count      float64 `json:"count"`
	Rate       float64 `json:"ratePer1000"`
	Resolved   float64 `json:"resolvedPct"`
	GDP        float64 `json:"gdpPerCapita"`
	Foreign    float64 `json:"foreignPct"`
	Population float64 `json:"population"`
}

// IsTotal reports whether r is the aggregate "all outcomes" row.
func (r Record) IsTotal() bool { return r.Level == LevelTotal }

// Column names as they appear in the header of the compressed dataset.
const (
	colYear       = "Any"
	colCanton     = "Canto_norm"
	colOffence    = "Tipus_de_Delicte"
	colLevel      = "Nivell_de_Resolucio"
	colCount      = "Nombre_de_Delictes"
	colRate       = "Taxa_Criminalitat_per_1000"
	colResolved   = "Percentatge_Casos_Resolts"
	colGDP        = "PIB_per_Capita"
	colForeign    = "Percentatge_Estrangers"
	colPopulation = "Poblacio_Total"
)

var requiredColumns = []string{
	colYear, colCanton, colOffence, colLevel, colCount,
	colRate, colResolved, colGDP, colForeign, colPopulation,
}

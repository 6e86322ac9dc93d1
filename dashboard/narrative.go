package dashboard

const (
	author = "Author: Christian Bevilacqua i Aregall"
	intro  = "Explore how crime in Switzerland has evolved, compare cantons and relate crime to socio-economic variables. " +
		"Filter by canton, year and offence type for a detailed view."
)

type narrative struct {
	heading string
	text    string
}

var sectionText = map[string]narrative{
	SectionMap: {
		"Crime map by canton",
		"Crime is concentrated mainly in urban, densely populated cantons, while rural cantons stay clearly lower in both volume and rate.",
	},
	SectionCantonTrend: {
		"Crime over time by canton",
		"All cantons follow a similar path over time, with a general decline up to 2020 and a slight recent rebound, " +
			"but the structural gap between urban and rural territories persists.",
	},
	SectionSocioeconomic: {
		"GDP, foreign population and crime rate",
		"Each bubble is a canton in the selected year: GDP per capita against the crime rate, sized by population and " +
			"colored by the share of foreign residents. Wealth alone does not explain the rate.",
	},
	SectionResolution: {
		"Case resolution by offence category",
		"Resolution depends strongly on the kind of offence. Violent and sexual offences are solved far more often than thefts and damage.",
	},
	SectionCategoryTrend: {
		"Crime over time by offence category",
		"The most frequent categories decline over time, while more complex offences such as fraud show a growing trend.",
	},
	SectionResolutionRate: {
		"Resolution rate by category over the years",
		"Serious offences keep high and stable resolution rates. Fraud combines rising case numbers with a falling resolution rate.",
	},
	SectionCantonCategory: {
		"Crimes by canton and category",
		"The largest urban cantons such as Zurich, Vaud, Geneva and Bern record the most offences, mostly thefts, damage and other offences. " +
			"Small rural cantons such as Uri, Glarus or Nidwalden show far lower volumes in every category. " +
			"Violence and sexual offences stay low everywhere; fraud is moderate, with peaks where economic activity is high.",
	},
	SectionCorrelation: {
		"Correlation between socio-economic features and crime",
		"Canton population explains almost all of the crime volume, while GDP and the share of foreign residents have a much weaker influence.",
	},
	SectionBubbles: {
		"Socio-economic features and crime trends by category",
		"The volume of each category is driven mainly by canton population, with moderate socio-economic effects that differ by offence type.",
	},
	SectionTopOffences: {
		"Most frequent offence types",
		"The twenty offence types with the most recorded cases in the selection.",
	},
}

// Conclusion is one closing paragraph of the page.
type Conclusion struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

var conclusions = []Conclusion{
	{
		"Evolution over time",
		"The most common offences, thefts, damage and other offences, trend downwards with a slight recovery in recent years. " +
			"Fraud and corruption rise steadily, while violent and sexual offences remain relatively stable.",
	},
	{
		"Differences between cantons",
		"Urban, densely populated cantons (Zurich, Vaud, Geneva, Basel-Stadt) concentrate more offences, in absolute terms and " +
			"in some cases per 1,000 inhabitants, while rural cantons stay significantly lower.",
	},
	{
		"Resolution rate",
		"Resolution depends heavily on the offence type. Serious and specific offences show high, stable rates; common offences such as theft are rarely solved.",
	},
	{
		"Socio-economic factors",
		"Total population is the strongest driver of the number of offences. GDP per capita shows no clear relation to crime, and the share of " +
			"foreign residents a moderate association in urban settings, with no evidence of direct causality.",
	},
	{
		"Regional structure",
		"Crime trends reflect the interaction of demographic, socio-economic and territorial factors. Differences between cantons persist over time, " +
			"which calls for prevention and investigation strategies adapted to each region and offence type.",
	},
}

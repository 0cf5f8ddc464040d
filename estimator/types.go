package estimator

// DataSource tells the UI where a traffic figure came from.
type DataSource string

const (
	DataSourceMegaSite  DataSource = "mega-site"
	DataSourceAnalysis  DataSource = "mcp-analysis"
	DataSourceEstimated DataSource = "estimated"
)

// Confidence is disclosed next to every estimate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CountryTraffic is one row of the geographic breakdown.
type CountryTraffic struct {
	Country    string `json:"country" yaml:"country"`
	Percentage int    `json:"percentage" yaml:"percentage"`
	Traffic    int    `json:"traffic" yaml:"traffic"`
}

// TrendPoint is one month of the six-month trend.
type TrendPoint struct {
	Month   string `json:"month" yaml:"month"`
	Organic int    `json:"organic" yaml:"organic"`
	Paid    int    `json:"paid" yaml:"paid"`
}

// TrafficEstimate is the terminal artifact of an audit.
type TrafficEstimate struct {
	MonthlyOrganic int              `json:"monthlyOrganic" yaml:"monthlyOrganic"`
	MonthlyPaid    int              `json:"monthlyPaid" yaml:"monthlyPaid"`
	BrandedTraffic int              `json:"brandedTraffic" yaml:"brandedTraffic"`
	TopCountries   []CountryTraffic `json:"topCountries" yaml:"topCountries"`
	Trend          []TrendPoint     `json:"trend" yaml:"trend"`
	DataSource     DataSource       `json:"dataSource" yaml:"dataSource"`
	Confidence     Confidence       `json:"confidence" yaml:"confidence"`
}

// Total is organic plus paid traffic.
func (t TrafficEstimate) Total() int {
	return t.MonthlyOrganic + t.MonthlyPaid
}

// NonBrandedTraffic is the organic traffic not attributed to brand searches.
func (t TrafficEstimate) NonBrandedTraffic() int {
	if n := t.MonthlyOrganic - t.BrandedTraffic; n > 0 {
		return n
	}
	return 0
}

package skill

// Statistic identifies one goodness-of-fit score.
type Statistic string

// Supported statistics.
const (
	PearsonR Statistic = "pearson_r"
	RSquared Statistic = "r_squared"
	NSE      Statistic = "nse"
	RMSE     Statistic = "rmse"
	PBIAS    Statistic = "pbias"
)

var reportOrder = []Statistic{PearsonR, RSquared, NSE, RMSE, PBIAS}

// Statistics returns every statistic in reporting order.
func Statistics() []Statistic {
	out := make([]Statistic, len(reportOrder))
	copy(out, reportOrder)
	return out
}

// Label returns the row label used in tabular skill score exports.
func (s Statistic) Label() string {
	switch s {
	case PearsonR:
		return "r"
	case RSquared:
		return "R_squared"
	case NSE:
		return "NSE"
	case RMSE:
		return "RMSE"
	case PBIAS:
		return "PBIAS"
	default:
		return string(s)
	}
}

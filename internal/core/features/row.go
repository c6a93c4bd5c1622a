// Package features extracts the fixed 38-dimensional feature vector that the
// classifier scores from a single contributor's ordered activity stream
package features

// Row holds the 38 named features in the exact order the classifier expects
// them. NA, NT and NOR are counts and stay integral; every other feature is a
// distribution statistic over hours or counts and stays a float rounded to
// three decimal places
type Row struct {
	NA  int
	NT  int
	NOR int
	ORR float64

	DCAMean, DCAMedian, DCAStd, DCAGini float64

	NARMean, NARMedian, NARGini, NARIQR float64

	NTRMean, NTRMedian, NTRStd, NTRGini float64

	NCARMean, NCARStd, NCARIQR float64

	DCARMean, DCARMedian, DCARStd, DCARIQR float64

	DAARMean, DAARMedian, DAARStd, DAARGini, DAARIQR float64

	DCATMean, DCATMedian, DCATStd, DCATGini, DCATIQR float64

	NATMean, NATMedian, NATStd, NATGini, NATIQR float64
}

// Names lists the 38 feature names in the order Columns emits them. It
// mirrors the flattened "feature_stat" naming scheme the classifier was
// trained against
var Names = []string{
	"NA", "NT", "NOR", "ORR",
	"DCA_mean", "DCA_median", "DCA_std", "DCA_gini",
	"NAR_mean", "NAR_median", "NAR_gini", "NAR_IQR",
	"NTR_mean", "NTR_median", "NTR_std", "NTR_gini",
	"NCAR_mean", "NCAR_std", "NCAR_IQR",
	"DCAR_mean", "DCAR_median", "DCAR_std", "DCAR_IQR",
	"DAAR_mean", "DAAR_median", "DAAR_std", "DAAR_gini", "DAAR_IQR",
	"DCAT_mean", "DCAT_median", "DCAT_std", "DCAT_gini", "DCAT_IQR",
	"NAT_mean", "NAT_median", "NAT_std", "NAT_gini", "NAT_IQR",
}

// Columns returns the 38 feature values in classifier input order, matching
// Names index for index
func (r Row) Columns() []float64 {
	return []float64{
		float64(r.NA), float64(r.NT), float64(r.NOR), r.ORR,
		r.DCAMean, r.DCAMedian, r.DCAStd, r.DCAGini,
		r.NARMean, r.NARMedian, r.NARGini, r.NARIQR,
		r.NTRMean, r.NTRMedian, r.NTRStd, r.NTRGini,
		r.NCARMean, r.NCARStd, r.NCARIQR,
		r.DCARMean, r.DCARMedian, r.DCARStd, r.DCARIQR,
		r.DAARMean, r.DAARMedian, r.DAARStd, r.DAARGini, r.DAARIQR,
		r.DCATMean, r.DCATMedian, r.DCATStd, r.DCATGini, r.DCATIQR,
		r.NATMean, r.NATMedian, r.NATStd, r.NATGini, r.NATIQR,
	}
}

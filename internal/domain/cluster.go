package domain

// ClusterSource records which pass produced a narrative cluster's members.
type ClusterSource string

const (
	ClusterKeyword ClusterSource = "KEYWORD"
	ClusterAI      ClusterSource = "AI"
	ClusterMixed   ClusterSource = "MIXED"
)

// HeatTier is the display tier derived from a cluster's composite score.
type HeatTier string

const (
	HeatBlazing HeatTier = "BLAZING"
	HeatHot     HeatTier = "HOT"
	HeatWarm    HeatTier = "WARM"
	HeatCool    HeatTier = "COOL"
)

// HeatForScore maps a 0-100 composite score to a heat tier.
func HeatForScore(score float64) HeatTier {
	switch {
	case score >= 80:
		return HeatBlazing
	case score >= 60:
		return HeatHot
	case score >= 40:
		return HeatWarm
	default:
		return HeatCool
	}
}

// MinClusterMembers is the smallest member count that makes a narrative
// cluster visible. A theme of one token is not a season.
const MinClusterMembers = 2

// NarrativeCluster groups live tokens sharing a detected theme ("Szn").
// Rebuilt from the live set on every polling cycle.
type NarrativeCluster struct {
	Key         string
	Label       string
	Members     []Token // always >= MinClusterMembers
	TotalVolume float64
	AvgChange   float64
	Momentum    float64 // fraction of members green, 0-1
	SznScore    float64 // weighted composite, 0-100
	Heat        HeatTier
	Source      ClusterSource
}

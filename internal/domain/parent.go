package domain

// ParentMatch is the resolved probable origin token for an alpha.
type ParentMatch struct {
	Token      Token
	Similarity float64 // text similarity between alpha and parent, 0-1
	Boost      float64 // query-tier confidence boost
	Score      float64 // Similarity + Boost
	QueryTier  int     // 1 = description cashtag .. 4 = symbol slice
	Query      string  // the search query that surfaced the parent
}

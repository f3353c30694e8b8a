package sketch

// Distance carries the similarity between two sketches, the values are computed elsewhere
type Distance struct {
	Containment  float64 `json:"containment" msgpack:"containment"`
	Jaccard      float64 `json:"jaccard" msgpack:"jaccard"`
	MashDistance float64 `json:"mashDistance" msgpack:"mashDistance"`
	CommonHashes uint64  `json:"commonHashes" msgpack:"commonHashes"`
	TotalHashes  uint64  `json:"totalHashes" msgpack:"totalHashes"`
	Query        string  `json:"query" msgpack:"query"`
	Reference    string  `json:"reference" msgpack:"reference"`
}

// NewDistance creates a distance result
func NewDistance(query, reference string, containment, jaccard, mashDistance float64, commonHashes, totalHashes uint64) Distance {
	return Distance{
		Containment:  containment,
		Jaccard:      jaccard,
		MashDistance: mashDistance,
		CommonHashes: commonHashes,
		TotalHashes:  totalHashes,
		Query:        query,
		Reference:    reference,
	}
}

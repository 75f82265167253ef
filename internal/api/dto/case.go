package dto

type CaseResponse struct {
	CaseID string  `json:"case_id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

type ListCasesResponse struct {
	Cases []CaseResponse `json:"cases"`
}

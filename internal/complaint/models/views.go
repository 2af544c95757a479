package models

// ComplaintDetails is a complaint with its current fine rows.
type ComplaintDetails struct {
	*Complaint
	Fines []*InvestigationFine `json:"fines"`
}

// ListResult is one page of the staff work queue.
type ListResult struct {
	Items  []*Complaint `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

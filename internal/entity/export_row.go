package entity

// ExportRow is one lead as shown to admin tooling.
type ExportRow struct {
	Site        string           `json:"site"`
	RequestedAt string           `json:"requested_at"`
	RequestType string           `json:"request_type"`
	Name        string           `json:"name"`
	BirthOrRRN  string           `json:"birth_or_rrn"`
	Gender      string           `json:"gender"`
	Phone       string           `json:"phone"`
	Type        ConsultationType `json:"type"`
	IssueNumber int              `json:"issue_number"`
	IssueURL    string           `json:"issue_url"`
}

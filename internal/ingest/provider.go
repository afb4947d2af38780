package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	PacketsReceived int      `json:"packets_received"`
	ReportsComputed int      `json:"reports_computed"`
	ReportsInserted int64    `json:"reports_inserted"`
	PacketsRejected int      `json:"packets_rejected"`
	Rejections      []string `json:"rejections,omitempty"`
	ReportIDs       []string `json:"report_ids,omitempty"`

	Message string `json:"message,omitempty"`
}

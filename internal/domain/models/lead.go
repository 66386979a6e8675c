// internal/domain/models/lead.go
package models

// LeadRequest is what the landing page posts when a visitor asks for a
// callback. Campaign overrides the campaign derived from PageType.
type LeadRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Service   string `json:"service"`
	PageType  string `json:"pageType"`
	Source    string `json:"source"`
	Campaign  string `json:"campaign"`
	UTMSource string `json:"utmSource"`
	UTMTerm   string `json:"utmTerm"`
	GCLID     string `json:"gclid"`
	AdName    string `json:"adName"`
	AdsetName string `json:"adsetName"`
}

// LeadResponse is returned to the landing page.
type LeadResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	LeadID  *string  `json:"leadId,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Package lead captures callback requests from the landing page and forwards
// them to the CRM.
//
// Endpoint:
//   - POST /api/lead - public, validated, sanitized, forwarded to LeadSquared
package lead

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/curelo/landingcms/internal/app/system/apicors"
	"github.com/curelo/landingcms/internal/app/system/htmlsanitize"
	"github.com/curelo/landingcms/internal/app/system/jsonutil"
	"github.com/curelo/landingcms/internal/app/system/leadsquared"
	"github.com/curelo/landingcms/internal/app/system/network"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Defaults applied to every forwarded lead.
const (
	DefaultSource   = "Google_lp"
	DefaultCampaign = "Google_LP_General"
	LeadType        = "P1 - Curelo New"
)

const retryMessage = "We encountered an issue processing your request. Please try again later."

// maxBodyBytes bounds the form payload.
const maxBodyBytes = 16 << 10

var campaignByPageType = map[string]string{
	"comprehensive": "Comprehensive_Full_Body_93P",
	"executive":     "Executive_Male_100P",
	"essential":     "Essential_Body_83P",
}

var nonDigits = regexp.MustCompile(`\D`)

// Forwarder submits CRM attributes and returns the lead id.
type Forwarder interface {
	Configured() bool
	CreateOrUpdate(ctx context.Context, attrs []leadsquared.Attribute) (string, error)
}

// Handler serves the lead endpoint.
type Handler struct {
	crm    Forwarder
	logger *zap.Logger
}

// NewHandler creates a lead Handler.
func NewHandler(crm Forwarder, logger *zap.Logger) *Handler {
	return &Handler{crm: crm, logger: logger}
}

// Routes mounts the handler. The landing page may be served from a
// different host than the API; with no origins any host may post.
func Routes(h *Handler, origins ...string) chi.Router {
	r := chi.NewRouter()
	r.Use(apicors.Middleware(origins...))
	r.Post("/", h.Submit)
	return r
}

// Submit handles POST /api/lead.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in models.LeadRequest
	if err := jsonutil.DecodeLimited(w, r, maxBodyBytes, &in); err != nil {
		if errors.Is(err, jsonutil.ErrBodyTooLarge) {
			jsonutil.PayloadTooLarge(w)
			return
		}
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	if fields := MarkupFields(in); len(fields) > 0 {
		h.logger.Info("lead contained markup; stripping",
			zap.Strings("fields", fields),
			zap.String("ip", network.ClientIP(r)))
	}
	in = Sanitize(in)
	if details := Validate(in); len(details) > 0 {
		h.logger.Debug("lead rejected", zap.Strings("details", details), zap.String("ip", network.ClientIP(r)))
		jsonutil.ValidationFailed(w, details)
		return
	}

	if !h.crm.Configured() {
		h.logger.Error("leadsquared credentials not configured")
		jsonutil.InternalError(w, "Server configuration error")
		return
	}

	id, err := h.crm.CreateOrUpdate(r.Context(), Attributes(in))
	if err != nil {
		h.logger.Error("lead submission failed",
			zap.String("campaign", Campaign(in)),
			zap.String("ip", network.ClientIP(r)),
			zap.Error(err))
		jsonutil.JSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to submit lead",
			"message": retryMessage,
		})
		return
	}

	h.logger.Info("lead submitted",
		zap.String("lead_id", id),
		zap.String("campaign", Campaign(in)),
		zap.String("ip", network.ClientIP(r)))

	resp := models.LeadResponse{Success: true, Message: "Lead submitted successfully"}
	if id != "" {
		resp.LeadID = &id
	}
	jsonutil.OK(w, resp)
}

type textField struct {
	name  string
	value *string
}

func textFields(in *models.LeadRequest) []textField {
	return []textField{
		{"name", &in.Name}, {"phone", &in.Phone}, {"city", &in.City},
		{"service", &in.Service}, {"pageType", &in.PageType}, {"source", &in.Source},
		{"campaign", &in.Campaign}, {"utmSource", &in.UTMSource}, {"utmTerm", &in.UTMTerm},
		{"gclid", &in.GCLID}, {"adName", &in.AdName}, {"adsetName", &in.AdsetName},
	}
}

// Sanitize strips markup from every free-text field.
func Sanitize(in models.LeadRequest) models.LeadRequest {
	for _, f := range textFields(&in) {
		*f.value = htmlsanitize.Text(*f.value)
	}
	return in
}

// MarkupFields names the fields, by their JSON keys, that carry markup.
func MarkupFields(in models.LeadRequest) []string {
	var names []string
	for _, f := range textFields(&in) {
		if !htmlsanitize.IsPlainText(*f.value) {
			names = append(names, f.name)
		}
	}
	return names
}

// Validate returns every failed rule in a fixed order.
func Validate(in models.LeadRequest) []string {
	var details []string
	if strings.TrimSpace(in.Name) == "" {
		details = append(details, "Name is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		details = append(details, "Phone number is required")
	} else if len(Digits(in.Phone)) != 10 {
		details = append(details, "Phone number must be exactly 10 digits")
	}
	if strings.TrimSpace(in.City) == "" {
		details = append(details, "City is required")
	}
	return details
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// SplitName splits on the first space: "Ravi Kumar Rao" is "Ravi" and
// "Kumar Rao".
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	first, last, _ = strings.Cut(name, " ")
	return first, last
}

// Campaign is the explicit campaign, else the one mapped from the page type.
func Campaign(in models.LeadRequest) string {
	if in.Campaign != "" {
		return in.Campaign
	}
	if c, ok := campaignByPageType[in.PageType]; ok {
		return c
	}
	return DefaultCampaign
}

// Attributes builds the CRM payload. Tracking attributes are appended only
// when present.
func Attributes(in models.LeadRequest) []leadsquared.Attribute {
	first, last := SplitName(in.Name)
	source := in.Source
	if source == "" {
		source = DefaultSource
	}

	attrs := []leadsquared.Attribute{
		{Attribute: "FirstName", Value: first},
		{Attribute: "LastName", Value: last},
		{Attribute: "Phone", Value: Digits(in.Phone)},
		{Attribute: "mx_Patient_City", Value: strings.TrimSpace(in.City)},
		{Attribute: "Source", Value: source},
		{Attribute: "mx_Lead_Type", Value: LeadType},
		{Attribute: "mx_Product_Service_Interest", Value: in.Service},
		{Attribute: "SourceCampaign", Value: Campaign(in)},
	}

	optional := []struct{ name, value string }{
		{"mx_utm_source", in.UTMSource},
		{"mx_utm_term", in.UTMTerm},
		{"mx_GCLid", in.GCLID},
		{"mx_Ad_Name", in.AdName},
		{"mx_Adset_Name", in.AdsetName},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, leadsquared.Attribute{Attribute: o.name, Value: o.value})
		}
	}
	return attrs
}

package lead

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/curelo/landingcms/internal/app/system/leadsquared"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/curelo/landingcms/internal/testutil"
	"go.uber.org/zap"
)

type fakeCRM struct {
	configured bool
	id         string
	err        error
	got        []leadsquared.Attribute
}

func (f *fakeCRM) Configured() bool { return f.configured }

func (f *fakeCRM) CreateOrUpdate(_ context.Context, attrs []leadsquared.Attribute) (string, error) {
	f.got = attrs
	return f.id, f.err
}

func validLead() map[string]any {
	return map[string]any{
		"name":     "Ravi Kumar Rao",
		"phone":    "98765-43210",
		"city":     "Bengaluru",
		"service":  "Comprehensive Full Body",
		"pageType": "comprehensive",
	}
}

func TestSubmit_Success(t *testing.T) {
	crm := &fakeCRM{configured: true, id: "lead-1"}
	h := NewHandler(crm, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Submit(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/lead", validLead()))

	if rec.Code != http.StatusOK {
		t.Fatalf("Submit() status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp models.LeadResponse
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.Success || resp.LeadID == nil || *resp.LeadID != "lead-1" {
		t.Errorf("response = %+v, want success with lead-1", resp)
	}

	want := map[string]string{
		"FirstName":      "Ravi",
		"LastName":       "Kumar Rao",
		"Phone":          "9876543210",
		"SourceCampaign": "Comprehensive_Full_Body_93P",
		"Source":         DefaultSource,
		"mx_Lead_Type":   LeadType,
	}
	got := map[string]string{}
	for _, a := range crm.got {
		got[a.Attribute] = a.Value
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestSubmit_ValidationFailed(t *testing.T) {
	crm := &fakeCRM{configured: true}
	h := NewHandler(crm, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Submit(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/lead", map[string]any{
		"name":  "  ",
		"phone": "12345",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Submit() status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp models.LeadResponse
	testutil.DecodeJSON(t, rec, &resp)
	want := []string{"Name is required", "Phone number must be exactly 10 digits", "City is required"}
	if !reflect.DeepEqual(resp.Details, want) {
		t.Errorf("details = %v, want %v", resp.Details, want)
	}
	if resp.Error != "Validation failed" {
		t.Errorf("error = %q, want %q", resp.Error, "Validation failed")
	}
	if crm.got != nil {
		t.Error("invalid lead should not be forwarded")
	}
}

func TestSubmit_NotConfigured(t *testing.T) {
	h := NewHandler(&fakeCRM{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Submit(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/lead", validLead()))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Submit() status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(rec.Body.String(), "Server configuration error") {
		t.Errorf("body = %s, want configuration error", rec.Body.String())
	}
}

func TestSubmit_CRMError(t *testing.T) {
	h := NewHandler(&fakeCRM{configured: true, err: errors.New("boom")}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Submit(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/lead", validLead()))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Submit() status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error text should not reach the client")
	}
}

func TestSubmit_InvalidJSON(t *testing.T) {
	h := NewHandler(&fakeCRM{configured: true}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader("{nope")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Submit() status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCampaign(t *testing.T) {
	tests := []struct {
		name string
		in   models.LeadRequest
		want string
	}{
		{"explicit wins", models.LeadRequest{Campaign: "Summer", PageType: "executive"}, "Summer"},
		{"comprehensive", models.LeadRequest{PageType: "comprehensive"}, "Comprehensive_Full_Body_93P"},
		{"executive", models.LeadRequest{PageType: "executive"}, "Executive_Male_100P"},
		{"essential", models.LeadRequest{PageType: "essential"}, "Essential_Body_83P"},
		{"unknown", models.LeadRequest{PageType: "other"}, DefaultCampaign},
		{"empty", models.LeadRequest{}, DefaultCampaign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Campaign(tt.in); got != tt.want {
				t.Errorf("Campaign() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{"Ravi", "Ravi", ""},
		{"Ravi Kumar", "Ravi", "Kumar"},
		{" Ravi Kumar Rao ", "Ravi", "Kumar Rao"},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = %q, %q, want %q, %q", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestAttributes_OptionalTracking(t *testing.T) {
	base := models.LeadRequest{Name: "A", Phone: "9876543210", City: "Pune"}
	if n := len(Attributes(base)); n != 8 {
		t.Errorf("len(Attributes()) = %d, want 8 without tracking fields", n)
	}

	base.UTMSource = "google"
	base.GCLID = "abc"
	attrs := Attributes(base)
	if len(attrs) != 10 {
		t.Fatalf("len(Attributes()) = %d, want 10", len(attrs))
	}
	if attrs[8].Attribute != "mx_utm_source" || attrs[9].Attribute != "mx_GCLid" {
		t.Errorf("tracking attributes = %+v, want mx_utm_source then mx_GCLid", attrs[8:])
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(models.LeadRequest{Name: "<b>Ravi</b>", City: "Pune<script>x()</script>"})
	if got.Name != "Ravi" || got.City != "Pune" {
		t.Errorf("Sanitize() = %+v, want markup removed", got)
	}
}

func TestMarkupFields(t *testing.T) {
	got := MarkupFields(models.LeadRequest{
		Name:      "<b>Ravi</b>",
		Phone:     "9876543210",
		City:      "Pune",
		UTMSource: `<img src=x onerror="alert(1)">`,
	})
	if len(got) != 2 || got[0] != "name" || got[1] != "utmSource" {
		t.Errorf("MarkupFields() = %v, want [name utmSource]", got)
	}

	if got := MarkupFields(models.LeadRequest{Name: "Ravi Kumar", City: "Pune"}); len(got) != 0 {
		t.Errorf("MarkupFields() = %v for plain input, want none", got)
	}
}

// internal/domain/models/sections.go
package models

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// USP is one unique-selling-point badge in the hero.
type USP struct {
	Icon  string `json:"icon" mapstructure:"icon"`
	Title string `json:"title" mapstructure:"title"`
}

// HeroSection is the banner block at the top of a page.
type HeroSection struct {
	DesktopBanner      string `json:"desktopBanner" mapstructure:"desktopBanner"`
	MobileBanner       string `json:"mobileBanner" mapstructure:"mobileBanner"`
	SmallBanner        string `json:"smallBanner" mapstructure:"smallBanner"`
	OfferTitle         string `json:"offerTitle" mapstructure:"offerTitle"`
	OfferSubtitle      string `json:"offerSubtitle" mapstructure:"offerSubtitle"`
	OfferPriceOriginal string `json:"offerPriceOriginal" mapstructure:"offerPriceOriginal"`
	USPs               []USP  `json:"usps" mapstructure:"usps"`
}

// InfoCard is a short fact shown under the test description.
type InfoCard struct {
	Title string `json:"title" mapstructure:"title"`
	Value string `json:"value" mapstructure:"value"`
	Sub   string `json:"sub" mapstructure:"sub"`
}

// TestDetailsSection describes the featured test package.
type TestDetailsSection struct {
	Description string     `json:"description" mapstructure:"description"`
	BannerImage string     `json:"bannerImage" mapstructure:"bannerImage"`
	Cards       []InfoCard `json:"cards" mapstructure:"cards"`
}

// Package is a bookable health checkup.
type Package struct {
	Title         string   `json:"title" mapstructure:"title"`
	Includes      string   `json:"includes" mapstructure:"includes"`
	ReportTime    string   `json:"reportTime" mapstructure:"reportTime"`
	Price         string   `json:"price" mapstructure:"price"`
	OriginalPrice string   `json:"originalPrice" mapstructure:"originalPrice"`
	Discount      string   `json:"discount" mapstructure:"discount"`
	Recommended   bool     `json:"recommended" mapstructure:"recommended"`
	ExtraTags     []string `json:"extraTags" mapstructure:"extraTags"`
}

// PackagesSection lists the most booked packages.
type PackagesSection struct {
	Title      string    `json:"title" mapstructure:"title"`
	Subtitle   string    `json:"subtitle" mapstructure:"subtitle"`
	MobileGif  string    `json:"mobileGif" mapstructure:"mobileGif"`
	DesktopGif string    `json:"desktopGif" mapstructure:"desktopGif"`
	Packages   []Package `json:"packages" mapstructure:"packages"`
}

// Feature is one reason-to-book tile.
type Feature struct {
	Icon        string `json:"icon" mapstructure:"icon"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
}

// WhyChooseUsSection is the trust block.
type WhyChooseUsSection struct {
	Title    string    `json:"title" mapstructure:"title"`
	Subtitle string    `json:"subtitle" mapstructure:"subtitle"`
	Features []Feature `json:"features" mapstructure:"features"`
}

// FAQItem is a question with its answer.
type FAQItem struct {
	Question string `json:"question" mapstructure:"question"`
	Answer   string `json:"answer" mapstructure:"answer"`
}

// FAQSection is the accordion of frequently asked questions.
type FAQSection struct {
	Title    string    `json:"title" mapstructure:"title"`
	Subtitle string    `json:"subtitle" mapstructure:"subtitle"`
	Items    []FAQItem `json:"items" mapstructure:"items"`
}

// ContactSection holds the call and WhatsApp details for the sticky footer.
type ContactSection struct {
	Phone           string `json:"phone" mapstructure:"phone"`
	WhatsApp        string `json:"whatsapp" mapstructure:"whatsapp"`
	WhatsAppMessage string `json:"whatsappMessage" mapstructure:"whatsappMessage"`
}

// Sections is the typed view of a page's content.
type Sections struct {
	Hero               HeroSection        `json:"hero" mapstructure:"hero"`
	TestDetails        TestDetailsSection `json:"testDetails" mapstructure:"testDetails"`
	MostBookedPackages PackagesSection    `json:"mostBookedPackages" mapstructure:"mostBookedPackages"`
	WhyChooseUs        WhyChooseUsSection `json:"whyChooseUs" mapstructure:"whyChooseUs"`
	FAQs               FAQSection         `json:"faqs" mapstructure:"faqs"`
	Contact            ContactSection     `json:"contact" mapstructure:"contact"`
}

// DecodeSections converts a generic section map into the typed view.
// Unknown keys are ignored and loosely typed values (a price stored as a
// number, a flag stored as "true") are coerced.
func DecodeSections(m SectionMap) (*Sections, error) {
	var out Sections
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(m)); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	return &out, nil
}

// ToSectionMap converts typed sections into the generic JSON tree stored in
// documents. Values come back in their JSON-decoded forms (float64, []any).
func ToSectionMap(s *Sections) (SectionMap, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return SectionMap(m), nil
}

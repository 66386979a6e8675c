// internal/domain/models/defaults.go
package models

const assetBase = "https://brandingpioneers.co.in/curelo-health/"

// DefaultContent returns the typed default content every new page starts
// with. Each call returns fresh slices.
func DefaultContent() *Sections {
	return &Sections{
		Hero: HeroSection{
			DesktopBanner:      assetBase + "hero.png",
			MobileBanner:       assetBase + "mob.png",
			SmallBanner:        assetBase + "small-ban.png",
			OfferTitle:         "Get Report Consultation & Diet Plan",
			OfferSubtitle:      "with your Booking!",
			OfferPriceOriginal: "₹799",
			USPs: []USP{
				{Icon: assetBase + "icon1.png", Title: "100% Honest Pricing"},
				{Icon: assetBase + "icon2.png", Title: "India's Widest Home Collection Network"},
				{Icon: assetBase + "icon3.png", Title: "100% Report Accuracy Guaranteed"},
				{Icon: assetBase + "icon4.png", Title: "70+ Lakhs Patients Served"},
			},
		},
		TestDetails: TestDetailsSection{
			Description: "Your body gives signals before a problem becomes serious. This package helps you catch early signs of health issues so you can take action on time. " +
				"It includes 68 important tests to check your liver, kidney, blood health, and more, giving you a complete health update with a single test. " +
				"Curelo Health is among the most trusted pathology labs near you, offering affordable health packages and accurate diagnostics. " +
				"Whether you're looking for laboratories near me or a nearby pathology center, our experts ensure quick home sample collection and accurate digital report delivery.",
			BannerImage: assetBase + "test.png",
			Cards: []InfoCard{
				{Title: "Get Reports in", Value: "15 Hours", Sub: "Get Reports in"},
				{Title: "Fasting Requirement", Value: "10-12 Hrs fasting Required", Sub: "Fasting Requirement"},
				{Title: "Home Collection", Value: "Available", Sub: "Home Collection"},
				{Title: "Age Group", Value: "5-99", Sub: "Age Group"},
			},
		},
		MostBookedPackages: PackagesSection{
			Title:      "Our Most Booked Packages",
			Subtitle:   "Comprehensive health checkups for your wellness",
			MobileGif:  assetBase + "mob.gif",
			DesktopGif: assetBase + "img.gif",
			Packages: []Package{
				{
					Title:         "Fit India Full Body Checkup with Free HbA1c",
					Includes:      "90 Parameters",
					ReportTime:    "12 hours",
					Price:         "₹1249",
					OriginalPrice: "₹5947",
					Discount:      "78% OFF",
					ExtraTags:     []string{"Infection", "Thyroid"},
				},
				{
					Title:         "Fit India Full Body with Vitamin Screening & Heart Test",
					Includes:      "96 Parameters",
					ReportTime:    "12 hours",
					Price:         "₹1799",
					OriginalPrice: "₹8566",
					Discount:      "78% OFF",
					Recommended:   true,
					ExtraTags:     []string{"Kidney", "Infection"},
				},
				{
					Title:         "Advance Plus Full Body Checkup",
					Includes:      "100 Parameters",
					ReportTime:    "12 hours",
					Price:         "₹2499",
					OriginalPrice: "₹9955",
					Discount:      "74% OFF",
					ExtraTags:     []string{"Kidney", "Infection"},
				},
			},
		},
		WhyChooseUs: WhyChooseUsSection{
			Title:    "Why Book Tests With us ?",
			Subtitle: "Trusted by 90 Lakhs+ satisfied customers",
			Features: []Feature{
				{Icon: "FiCheckCircle", Title: "Quality", Description: "Follow Stringent Quality Control"},
				{Icon: "FiClock", Title: "On-Time Services", Description: "Sample Collection & Reports"},
				{Icon: "FiThumbsUp", Title: "Convenience", Description: "At-Home & In-Lab Services"},
				{Icon: "FiCalendar", Title: "Availability", Description: "365 days a year"},
			},
		},
		FAQs: FAQSection{
			Title:    "Frequently Asked Questions",
			Subtitle: "Find answers to common questions about our services",
			Items: []FAQItem{
				{
					Question: "How does the home sample collection work?",
					Answer:   "Once you book a test, a certified phlebotomist will visit your home at your scheduled time to collect samples. The service is free of cost.",
				},
				{
					Question: "Which labs are affiliated with Curelo?",
					Answer:   "We partner with over 1500+ top NABL certified labs across India to ensure you get the most accurate and reliable diagnostic services.",
				},
				{
					Question: "Do you serve in Delhi/NCR?",
					Answer:   "Yes, we have extensive coverage across Delhi, Noida, Gurgaon, Ghaziabad, and Faridabad with multiple collection centers.",
				},
				{
					Question: "How soon will I get my reports?",
					Answer:   "Reports are typically generated within 12-24 hours depending on the test, and are delivered digitally via Email or WhatsApp.",
				},
			},
		},
		Contact: ContactSection{
			Phone:           "+918069770000",
			WhatsApp:        "918069770000",
			WhatsAppMessage: "Hi, I would like to book a health checkup.",
		},
	}
}

// DefaultSections returns the default content as a generic section map.
func DefaultSections() SectionMap {
	m, err := ToSectionMap(DefaultContent())
	if err != nil {
		// The default content is plain strings, bools and slices.
		panic("models: default content does not encode: " + err.Error())
	}
	return m
}

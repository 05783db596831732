package domain

// PlatformDescriptor drives per-platform presentation. The board client picks
// the icon and accent by key; this keeps dispatch on the closed enum instead
// of scattered switch-on-string blocks.
type PlatformDescriptor struct {
	Platform SourcePlatform `json:"platform"`
	Label    string         `json:"label"`
	IconKey  string         `json:"iconKey"`
	Accent   string         `json:"accent"`
}

var platformDescriptors = map[SourcePlatform]PlatformDescriptor{
	PlatformFacebook:  {Platform: PlatformFacebook, Label: "Facebook", IconKey: "facebook", Accent: "blue"},
	PlatformInstagram: {Platform: PlatformInstagram, Label: "Instagram", IconKey: "instagram", Accent: "pink"},
	PlatformWalkIns:   {Platform: PlatformWalkIns, Label: "Walk-ins", IconKey: "storefront", Accent: "amber"},
	PlatformReferral:  {Platform: PlatformReferral, Label: "Referral", IconKey: "people", Accent: "green"},
	PlatformEmail:     {Platform: PlatformEmail, Label: "Email", IconKey: "mail", Accent: "slate"},
	PlatformWebsite:   {Platform: PlatformWebsite, Label: "Website", IconKey: "globe", Accent: "indigo"},
	PlatformPhoneCall: {Platform: PlatformPhoneCall, Label: "Phone call", IconKey: "phone", Accent: "teal"},
	PlatformUnknown:   {Platform: PlatformUnknown, Label: "Unknown", IconKey: "question", Accent: "gray"},
}

// AllPlatforms lists every known source platform in display order.
func AllPlatforms() []SourcePlatform {
	return []SourcePlatform{
		PlatformFacebook,
		PlatformInstagram,
		PlatformWalkIns,
		PlatformReferral,
		PlatformEmail,
		PlatformWebsite,
		PlatformPhoneCall,
		PlatformUnknown,
	}
}

// DescriptorFor returns the presentation descriptor for a platform.
// Unknown values get the safe default descriptor, never a zero value.
func DescriptorFor(platform SourcePlatform) PlatformDescriptor {
	if d, ok := platformDescriptors[platform]; ok {
		return d
	}
	return platformDescriptors[PlatformUnknown]
}

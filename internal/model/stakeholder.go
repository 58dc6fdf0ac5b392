package model

// SocialLinks holds per-network profile URLs for a stakeholder.
type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	Facebook string `json:"facebook,omitempty" yaml:"facebook,omitempty"`
}

// IsZero reports whether no profile is set.
func (s SocialLinks) IsZero() bool {
	return s.LinkedIn == "" && s.Twitter == "" && s.Facebook == ""
}

// Stakeholder is a contact entity recovered from a backend response.
type Stakeholder struct {
	Name         string      `json:"name,omitempty" yaml:"name,omitempty"`
	Organization string      `json:"organization,omitempty" yaml:"organization,omitempty"`
	Email        string      `json:"email,omitempty" yaml:"email,omitempty"`
	Phone        string      `json:"phone,omitempty" yaml:"phone,omitempty"`
	SocialLinks  SocialLinks `json:"social_links" yaml:"social_links"`
	OtherInfo    string      `json:"other_info,omitempty" yaml:"other_info,omitempty"`
}

// IsZero reports whether every field is empty.
func (s Stakeholder) IsZero() bool {
	return s.Name == "" && s.Organization == "" && s.Email == "" &&
		s.Phone == "" && s.OtherInfo == "" && s.SocialLinks.IsZero()
}

// StakeholderDetails is the normalized outcome of all chunk responses for one
// page. Errors describes responses that could not be parsed.
type StakeholderDetails struct {
	Stakeholders []Stakeholder `json:"stakeholders" yaml:"stakeholders"`
	Errors       []string      `json:"error" yaml:"error"`
}

// EmptyDetails returns details with non-nil empty lists.
func EmptyDetails() StakeholderDetails {
	return StakeholderDetails{Stakeholders: []Stakeholder{}, Errors: []string{}}
}

package domain

// CompanyProfile is the static company record optionally injected as prompt
// context. It is loaded from a local file and never mutated once loaded.
type CompanyProfile struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases" yaml:"aliases"`
	Website     string   `json:"website" yaml:"website"`
	Description string   `json:"description" yaml:"description"`
	Products    []string `json:"products" yaml:"products"`
	Location    string   `json:"location" yaml:"location"`
	Contact     *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// Contact holds optional reach-out details for a company.
type Contact struct {
	Phone   string `json:"phone" yaml:"phone"`
	Email   string `json:"email" yaml:"email"`
	Address string `json:"address" yaml:"address"`
}

package company

import (
	"strings"

	"company-chatbot/internal/domain"
)

const descriptionTermLimit = 20

// IsRelevant reports whether message mentions the company. It lower-cases
// both sides and looks for any name, alias, product or one of the first
// description words as a plain substring. Matches are not word-bounded, so a
// short alias can match inside an unrelated word.
func IsRelevant(message string, p *domain.CompanyProfile) bool {
	if p == nil || message == "" {
		return false
	}
	text := strings.ToLower(message)
	for _, term := range candidateTerms(p) {
		if term == "" {
			continue
		}
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func candidateTerms(p *domain.CompanyProfile) []string {
	terms := make([]string, 0, 1+len(p.Aliases)+len(p.Products)+descriptionTermLimit)
	if p.Name != "" {
		terms = append(terms, strings.ToLower(p.Name))
	}
	for _, a := range p.Aliases {
		terms = append(terms, strings.ToLower(a))
	}
	for _, prod := range p.Products {
		terms = append(terms, strings.ToLower(prod))
	}
	if p.Description != "" {
		words := strings.FieldsFunc(strings.ToLower(p.Description), func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
		})
		if len(words) > descriptionTermLimit {
			words = words[:descriptionTermLimit]
		}
		terms = append(terms, words...)
	}
	return terms
}

// Summary renders the profile as labelled lines, skipping empty fields.
func Summary(p *domain.CompanyProfile) string {
	if p == nil {
		return ""
	}
	var lines []string
	if p.Name != "" {
		lines = append(lines, "Name: "+p.Name)
	}
	if len(p.Aliases) > 0 {
		lines = append(lines, "Aliases: "+strings.Join(p.Aliases, ", "))
	}
	if p.Website != "" {
		lines = append(lines, "Website: "+p.Website)
	}
	if p.Description != "" {
		lines = append(lines, "Description: "+p.Description)
	}
	if len(p.Products) > 0 {
		lines = append(lines, "Products/Services: "+strings.Join(p.Products, ", "))
	}
	if p.Location != "" {
		lines = append(lines, "Location: "+p.Location)
	}
	if c := contactLine(p.Contact); c != "" {
		lines = append(lines, "Contact: "+c)
	}
	return strings.Join(lines, "\n")
}

func contactLine(c *domain.Contact) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, v := range []string{c.Phone, c.Email, c.Address} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}

// ContextBlock is the prompt text prepended ahead of the user message.
func ContextBlock(p *domain.CompanyProfile) string {
	return "Company profile (for context):\n" + Summary(p) +
		"\n\nUse this information when answering questions about the company."
}

package usecase

import (
	"company-chatbot/internal/company"
	"company-chatbot/internal/domain"
)

const (
	generationTemperature = 0.6
	candidateCount        = 1
)

// buildContents orders the prompt: the company context block first when
// included, then the user message.
func buildContents(message string, profile *domain.CompanyProfile, includeCompany bool) []domain.Content {
	contents := make([]domain.Content, 0, 2)
	if includeCompany && profile != nil {
		contents = append(contents, domain.TextContent(company.ContextBlock(profile)))
	}
	return append(contents, domain.TextContent(message))
}

func buildRequest(contents []domain.Content, maxOutputTokens int) domain.GenerationRequest {
	return domain.GenerationRequest{
		Contents: contents,
		GenerationConfig: domain.GenerationConfig{
			MaxOutputTokens: maxOutputTokens,
			Temperature:     generationTemperature,
			CandidateCount:  candidateCount,
		},
	}
}

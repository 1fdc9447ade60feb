package domain

// GenerationRequest is the request body of a generateContent call.
type GenerationRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Content is one ordered entry of GenerationRequest.Contents.
type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
	CandidateCount  int     `json:"candidateCount"`
}

// TextContent wraps text in a single-part Content.
func TextContent(text string) Content {
	return Content{Parts: []Part{{Text: text}}}
}

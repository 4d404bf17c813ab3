package llm

import (
	"strings"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

// DefaultModel is used when the caller does not pick one.
const DefaultModel = "deepseek/DeepSeek-V3-0324"

const userPreamble = "Extract all information from this flight ticket text and return it as a JSON object:\n\n"

// Prompt is a fully built chat request.
type Prompt struct {
	System   string
	User     string
	Model    string
	JSONMode bool
}

var systemInstruction = strings.Join([]string{
	"You are an expert system specialized in extracting information from flight tickets.",
	"Extract all relevant information from the flight ticket text provided.",
	"Return the information in a well-structured JSON format.",
	"Include the following fields if available: " + strings.Join(models.TicketFields, ", ") + ".",
	"If a field is not visible or not present in the ticket, set its value to null.",
	"Do not include any explanations or notes in your response, only the JSON object.",
	"Ensure all dates are in YYYY-MM-DD format and times are in 24-hour format (HH:MM).",
	"Use IATA codes for airports when available (e.g., JFK, LAX).",
	"If you detect multiple flight segments, include them as an array under '" + models.SegmentsField + "'.",
}, "\n")

// SystemInstruction returns the fixed instruction sent with every request.
func SystemInstruction() string {
	return systemInstruction
}

// BuildPrompt embeds the extracted text verbatim and resolves the model.
func BuildPrompt(req models.ExtractionRequest) Prompt {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	return Prompt{
		System:   systemInstruction,
		User:     userPreamble + req.Text,
		Model:    model,
		JSONMode: true,
	}
}

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"marketcompanion/internal/evidence"
)

// Sentiment is the overall market mood.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Mixed   Sentiment = "mixed"
)

// Volume is how much a topic is being talked about.
type Volume string

const (
	VolumeLow      Volume = "low"
	VolumeModerate Volume = "moderate"
	VolumeHigh     Volume = "high"
)

// SummaryResult is the four-field portfolio synthesis.
type SummaryResult struct {
	CurrentEvents      string    `json:"current_events" validate:"required"`
	ActionableInsights string    `json:"actionable_insights" validate:"required"`
	Sentiment          Sentiment `json:"sentiment" validate:"required,oneof=bullish bearish mixed"`
	SentimentReasoning string    `json:"sentiment_reasoning" validate:"required"`
}

func (r *SummaryResult) normalize() {
	r.Sentiment = Sentiment(strings.ToLower(strings.TrimSpace(string(r.Sentiment))))
}

// SentimentClassification is the result of classifying a piece of text.
type SentimentClassification struct {
	Sentiment    Sentiment `json:"sentiment"`
	Confidence   float64   `json:"confidence"`
	VolumeOfTalk Volume    `json:"volume_of_talk"`
	Reasoning    string    `json:"reasoning"`
}

// classificationWire keeps confidence a pointer so a missing key is told
// apart from 0.0.
type classificationWire struct {
	Sentiment    Sentiment `json:"sentiment" validate:"required,oneof=bullish bearish mixed"`
	Confidence   *float64  `json:"confidence" validate:"required,gte=0,lte=1"`
	VolumeOfTalk Volume    `json:"volume_of_talk" validate:"required,oneof=low moderate high"`
	Reasoning    string    `json:"reasoning" validate:"required"`
}

func (w *classificationWire) normalize() {
	w.Sentiment = Sentiment(strings.ToLower(strings.TrimSpace(string(w.Sentiment))))
	w.VolumeOfTalk = Volume(strings.ToLower(strings.TrimSpace(string(w.VolumeOfTalk))))
}

func (w classificationWire) result() SentimentClassification {
	return SentimentClassification{
		Sentiment:    w.Sentiment,
		Confidence:   *w.Confidence,
		VolumeOfTalk: w.VolumeOfTalk,
		Reasoning:    w.Reasoning,
	}
}

// FallbackSummary is returned when synthesis fails for any reason.
func FallbackSummary(err error) SummaryResult {
	return SummaryResult{
		CurrentEvents:      fmt.Sprintf("Error generating summary: %v", err),
		ActionableInsights: "Unable to provide insights at this time.",
		Sentiment:          Mixed,
		SentimentReasoning: "Error in analysis",
	}
}

// FallbackClassification is returned when classification fails.
func FallbackClassification(err error) SentimentClassification {
	return SentimentClassification{
		Sentiment:    Mixed,
		Confidence:   0,
		VolumeOfTalk: VolumeLow,
		Reasoning:    fmt.Sprintf("Error analyzing sentiment: %v", err),
	}
}

// FallbackAnswer is returned when a chat turn fails.
func FallbackAnswer(err error) string {
	return fmt.Sprintf("I'm having trouble processing your question right now. Error: %v", err)
}

type normalizer interface{ normalize() }

// decodeStrict parses model output into T. Code fences and prose around the
// object are stripped; unknown keys, trailing data and failed validation are
// all MalformedResponse.
func decodeStrict[T any](v *validator.Validate, content string) (T, error) {
	var out T
	body := cleanupModelJSON(content)
	if body == "" {
		return out, fmt.Errorf("%w: empty model output", evidence.ErrMalformedResponse)
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", evidence.ErrMalformedResponse, err)
	}
	if dec.More() {
		return out, fmt.Errorf("%w: trailing data after object", evidence.ErrMalformedResponse)
	}
	if n, ok := any(&out).(normalizer); ok {
		n.normalize()
	}
	if err := v.Struct(&out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return out, fmt.Errorf("%w: invalid fields %s", evidence.ErrMalformedResponse, strings.Join(fields, ", "))
		}
		return out, fmt.Errorf("%w: %v", evidence.ErrMalformedResponse, err)
	}
	return out, nil
}

func cleanupModelJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		lines := strings.Split(trimmed, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
			if strings.TrimSpace(lines[len(lines)-1]) == "```" {
				lines = lines[:len(lines)-1]
			}
			trimmed = strings.Join(lines, "\n")
		}
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}
	return strings.TrimSpace(trimmed)
}

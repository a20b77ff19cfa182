package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/normalizers"
)

// Extractor turns free-form user text into structured record candidates
type Extractor interface {
	Extract(ctx context.Context, recordType models.RecordType, text string) ([]models.Candidate, error)
}

const systemPrompt = `You extract structured health records from free-form user text.
Respond with JSON only, no prose, in the shape {"records": [...]}.
Each record has: name (string, required), brand (string or null), category (string or null),
value (number or null), unit (string or null), date_tested (YYYY-MM-DD or null),
data (object with any extra details), confidence (0 to 1),
and field_confidence (map of field name to score).
Field confidence scores: use -1 when you looked for the field and it is absent from the text,
omit fields you did not evaluate, and use a score between 0 and 1 when you found it.`

var typePrompts = map[models.RecordType]string{
	models.RecordTypeBiomarker:     "Extract lab test results (biomarkers). Each needs a name, a numeric value with unit, and the test date if mentioned.",
	models.RecordTypeSupplement:    "Extract supplements the user takes. Capture brand and dose when mentioned; put dose in data.",
	models.RecordTypeEquipment:     "Extract health and wellness equipment the user owns or uses. Capture brand when mentioned.",
	models.RecordTypeFacialProduct: "Extract skincare and facial products. Capture brand and product category when mentioned.",
	models.RecordTypeRoutine:       "Extract routine entries. Put days of the week, time of day, and dose in data as days, timing, and dose.",
}

// buildPrompt assembles the user-turn prompt for one extraction
func buildPrompt(recordType models.RecordType, text string) string {
	instruction, ok := typePrompts[recordType]
	if !ok {
		instruction = "Extract health records from the text."
	}
	return fmt.Sprintf("%s\n\nText:\n%s", instruction, text)
}

// envelope covers the response shapes providers actually produce: a bare
// array, {"records": [...]}, or a type-keyed collection.
type envelope struct {
	Records        []models.Candidate `json:"records"`
	Biomarkers     []models.Candidate `json:"biomarkers"`
	Supplements    []models.Candidate `json:"supplements"`
	Equipment      []models.Candidate `json:"equipment"`
	Products       []models.Candidate `json:"products"`
	FacialProducts []models.Candidate `json:"facial_products"`
	Routines       []models.Candidate `json:"routines"`
}

func (e envelope) candidates() []models.Candidate {
	for _, batch := range [][]models.Candidate{
		e.Records, e.Biomarkers, e.Supplements, e.Equipment, e.Products, e.FacialProducts, e.Routines,
	} {
		if len(batch) > 0 {
			return batch
		}
	}
	return nil
}

// ParseCandidates parses a provider response into candidates. Providers wrap
// JSON in markdown fences or prose often enough that the payload is carved
// out between the outermost braces first.
func ParseCandidates(raw string) ([]models.Candidate, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON payload in extraction response")
	}

	var candidates []models.Candidate
	if strings.HasPrefix(payload, "[") {
		if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
			return nil, fmt.Errorf("failed to parse extraction response: %w", err)
		}
	} else {
		var env envelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			return nil, fmt.Errorf("failed to parse extraction response: %w", err)
		}
		candidates = env.candidates()
	}

	return normalizeCandidates(candidates), nil
}

// extractJSON carves the outermost JSON value out of a provider response
func extractJSON(raw string) string {
	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")

	start, closer := objStart, "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(raw, closer)
	if end <= start {
		return ""
	}
	return raw[start : end+1]
}

// normalizeCandidates cleans up provider output: display names are trimmed,
// nameless entries are dropped, confidence is clamped to [0, 1], and negative
// field scores collapse to the checked-but-absent sentinel.
func normalizeCandidates(candidates []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Name = normalizers.ItemName(c.Name)
		if c.Name == "" {
			continue
		}

		if c.Confidence < 0 {
			c.Confidence = 0
		} else if c.Confidence > 1 {
			c.Confidence = 1
		}

		for field, score := range c.FieldConfidence {
			if score < 0 {
				c.FieldConfidence[field] = models.FieldNotFound
			} else if score > 1 {
				c.FieldConfidence[field] = 1
			}
		}

		out = append(out, c)
	}
	return out
}

package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/metrics"

	"github.com/goccy/go-json"
)

const (
	classifyOperation = "classify"
	unknownImageLabel = "unknown_image"
	unknownCategory   = "Unknown"
)

// Classifier labels equipment photos.
type Classifier struct {
	client *Client
}

// NewClassifier creates a Classifier on top of client.
func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

// Classify identifies the equipment in image. Like Advise it never fails:
// without credentials it returns the file name as label with category
// "Unknown", and provider errors or unparseable output are reported in Meta.
func (c *Classifier) Classify(ctx context.Context, image []byte, contentType, filename string) domain.EquipmentClassification {
	log := logging.Ctx(ctx)
	label := fallbackLabel(filename)

	if !c.client.Enabled() {
		metrics.RecordAIFallback(classifyOperation, "no_credentials")
		return domain.EquipmentClassification{
			Label:      label,
			Category:   unknownCategory,
			Confidence: 0,
			Meta:       map[string]interface{}{"warning": "AI API key not set - returning fallback"},
		}
	}

	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	input := []inputMessage{
		{Role: "system", Content: []map[string]any{
			{"type": "input_text", "text": classifySystemPrompt},
		}},
		{Role: "user", Content: []map[string]any{
			{"type": "input_text", "text": classifyUserPrompt},
			{"type": "input_image", "image_url": dataURL},
		}},
	}

	text, err := c.client.generate(ctx, c.client.visionModel, input, jsonObjectFormat())
	if err != nil {
		reason := failureReason(err)
		log.Warn().Err(err).Str("reason", reason).Str("file", filename).Msg("classification degraded")
		metrics.RecordAIRequest(classifyOperation, "error")
		metrics.RecordAIFallback(classifyOperation, reason)
		msg := err.Error()
		var se *StatusError
		if errors.As(err, &se) && se.Body != "" {
			msg = se.Body
		}
		return domain.EquipmentClassification{Label: label, Meta: map[string]interface{}{"error": msg}}
	}

	var out domain.EquipmentClassification
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("classification output is not valid JSON")
		metrics.RecordAIRequest(classifyOperation, "invalid")
		metrics.RecordAIFallback(classifyOperation, "malformed")
		return domain.EquipmentClassification{Label: label, Meta: map[string]interface{}{"raw": text}}
	}

	metrics.RecordAIRequest(classifyOperation, "ok")
	if strings.TrimSpace(out.Label) == "" {
		out.Label = label
	}
	return out
}

func fallbackLabel(filename string) string {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return unknownImageLabel
	}
	return name
}

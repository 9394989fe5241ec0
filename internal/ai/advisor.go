package ai

import (
	"context"
	"fmt"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const adviceOperation = "advice"

// Degraded summaries, one per failure class.
const (
	summaryNoCredentials = "AI advice is unavailable: no AI provider API key is configured. Your workout history is still available."
	summaryUnavailable   = "AI advice is temporarily unavailable: the AI provider could not be reached. Please try again later."
	summaryMalformed     = "AI advice is temporarily unavailable: the AI provider returned an unusable answer. Please try again later."
	summaryNoHistory     = "No workouts logged yet. Log a few sessions to receive training advice."
)

// Advisor turns a compacted workout history into an AdviceDocument.
type Advisor struct {
	client   *Client
	validate *validator.Validate
}

// NewAdvisor creates an Advisor on top of client.
func NewAdvisor(client *Client) *Advisor {
	return &Advisor{client: client, validate: validator.New()}
}

// Advise asks the provider for training advice on workouts, which should be
// compacted and ordered most recent first. It never fails: any provider
// problem yields a degraded document whose summary explains what happened.
func (a *Advisor) Advise(ctx context.Context, workouts []domain.Workout) domain.AdviceDocument {
	log := logging.Ctx(ctx)
	period := analyzedPeriod(workouts)

	if !a.client.Enabled() {
		metrics.RecordAIFallback(adviceOperation, "no_credentials")
		return degraded(summaryNoCredentials, period)
	}
	if len(workouts) == 0 {
		return degraded(summaryNoHistory, period)
	}

	history, err := json.Marshal(workouts)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode workout history for advice")
		metrics.RecordAIFallback(adviceOperation, "encode")
		return degraded(summaryMalformed, period)
	}

	input := []inputMessage{
		{Role: "system", Content: adviceSystemPrompt},
		{Role: "user", Content: adviceUserPrompt + string(history)},
	}
	text, err := a.client.generate(ctx, a.client.model, input, jsonSchemaFormat(adviceSchemaName, adviceSchema()))
	if err != nil {
		reason := failureReason(err)
		log.Warn().Err(err).Str("reason", reason).Int("workouts", len(workouts)).Msg("advice request degraded")
		metrics.RecordAIRequest(adviceOperation, "error")
		metrics.RecordAIFallback(adviceOperation, reason)
		if reason == "malformed" || reason == "refused" {
			return degraded(summaryMalformed, period)
		}
		return degraded(summaryUnavailable, period)
	}

	doc, err := a.decode(text)
	if err != nil {
		log.Warn().Err(err).Msg("advice response did not match schema")
		metrics.RecordAIRequest(adviceOperation, "invalid")
		metrics.RecordAIFallback(adviceOperation, "invalid_schema")
		return degraded(summaryMalformed, period)
	}

	metrics.RecordAIRequest(adviceOperation, "ok")
	if doc.AnalyzedPeriod == "" {
		doc.AnalyzedPeriod = period
	}
	return doc
}

func (a *Advisor) decode(text string) (domain.AdviceDocument, error) {
	var doc domain.AdviceDocument
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return domain.AdviceDocument{}, fmt.Errorf("decode advice: %w", err)
	}
	if err := a.validate.Struct(doc); err != nil {
		return domain.AdviceDocument{}, fmt.Errorf("validate advice: %w", err)
	}
	return doc, nil
}

func degraded(summary, period string) domain.AdviceDocument {
	doc := domain.DegradedAdvice(summary)
	doc.AnalyzedPeriod = period
	return doc
}

// analyzedPeriod describes the date range covered by workouts.
func analyzedPeriod(workouts []domain.Workout) string {
	if len(workouts) == 0 {
		return ""
	}
	first, last := workouts[0].StartedAt, workouts[0].StartedAt
	for _, w := range workouts[1:] {
		if w.StartedAt.Before(first) {
			first = w.StartedAt
		}
		if w.StartedAt.After(last) {
			last = w.StartedAt
		}
	}
	const layout = "2006-01-02"
	return fmt.Sprintf("%s to %s (%d workouts)", first.Format(layout), last.Format(layout), len(workouts))
}

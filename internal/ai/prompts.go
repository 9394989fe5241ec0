package ai

const adviceSystemPrompt = `You are a sports scientist and strength and conditioning coach.
You analyze logged gym sessions (equipment used, sets, reps, duration, load and timing)
and give practical, safe, evidence-based training advice.
Be specific about training volume, frequency, progression and recovery.
Never give medical diagnoses. Respond only with JSON matching the provided schema.`

const adviceUserPrompt = `Analyze the workout history below, most recent session first.
Summarize the training pattern, name the period you analyzed, list strengths and risks,
and propose one or more recommendation blocks. Each block needs a goal, a rationale,
a weekly plan of day/focus/exercises entries, a recovery checklist and a monitoring checklist.

Workout history (JSON):
`

const classifySystemPrompt = `You identify gym equipment from photos. Return a JSON object with the fields:
- label: the equipment name
- category: the equipment group (Cardio, Strength, Free Weights, Functional, ...)
- brand: the manufacturer, when it can be inferred
- confidence: a number from 0 to 1
- meta: any extra details (parts, usage hints, ...)
Return only valid JSON, no explanation.`

const classifyUserPrompt = `Identify the equipment in this image and fill in the requested fields.`

const adviceSchemaName = "workout_advice"

func stringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

// adviceSchema mirrors domain.AdviceDocument. Strict mode requires every
// property listed as required and no additional properties.
func adviceSchema() map[string]any {
	planEntry := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"day":       map[string]any{"type": "string"},
			"focus":     map[string]any{"type": "string"},
			"exercises": stringArraySchema(),
		},
		"required":             []string{"day", "focus", "exercises"},
		"additionalProperties": false,
	}

	recommendation := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"goal":      map[string]any{"type": "string"},
			"rationale": map[string]any{"type": "string"},
			"weeklyPlan": map[string]any{
				"type":  "array",
				"items": planEntry,
			},
			"recoveryChecklist":   stringArraySchema(),
			"monitoringChecklist": stringArraySchema(),
		},
		"required":             []string{"goal", "rationale", "weeklyPlan", "recoveryChecklist", "monitoringChecklist"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":        map[string]any{"type": "string"},
			"analyzedPeriod": map[string]any{"type": "string"},
			"strengths":      stringArraySchema(),
			"risks":          stringArraySchema(),
			"recommendations": map[string]any{
				"type":  "array",
				"items": recommendation,
			},
		},
		"required":             []string{"summary", "analyzedPeriod", "strengths", "risks", "recommendations"},
		"additionalProperties": false,
	}
}

package outline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/tutor"
)

// Schema defines the JSON schema for course outline generation.
var Schema = &llm.Schema{
	Name:        "course-outline",
	Description: "A structured course outline of sections and subtopics",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Title of the course",
			},
			"sections": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
						"learning_objectives": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Specific, measurable objectives using Bloom's taxonomy verbs",
						},
						"subtopics": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"title":       map[string]any{"type": "string"},
									"description": map[string]any{"type": "string"},
									"key_points": map[string]any{
										"type":  "array",
										"items": map[string]any{"type": "string"},
									},
									"estimated_minutes": map[string]any{"type": "integer"},
								},
								"required":             []any{"title", "description", "key_points", "estimated_minutes"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []any{"title", "learning_objectives", "subtopics"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "sections"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You are an expert educational content designer specializing in creating structured course outlines for students.

Your task is to create a comprehensive course outline based on the provided curriculum information.

Guidelines:
1. Create 3-8 logical sections that cover the topic progressively
2. Each section should have 2-6 subtopics
3. Learning objectives should be specific and measurable (use Bloom's taxonomy verbs)
4. Estimate realistic time for each subtopic (typically 3-8 minutes)
5. Include key points that students should remember
6. Organize content from basic to advanced concepts
7. Consider the education board's typical approach and standards`

// GeneratorConfig holds outline generation settings.
type GeneratorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultGeneratorConfig returns the default generation settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{MaxTokens: 4000, Temperature: 0.7}
}

// Generator asks the language model to design an outline.
type Generator struct {
	provider llm.Provider
	cfg      GeneratorConfig
	logger   *zap.Logger
}

// NewGenerator creates an LLM-backed outline source.
func NewGenerator(provider llm.Provider, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultGeneratorConfig().MaxTokens
	}
	return &Generator{provider: provider, cfg: cfg, logger: logger}
}

type outlineOutput struct {
	Title    string          `json:"title"`
	Sections []sectionOutput `json:"sections"`
}

type sectionOutput struct {
	Title              string           `json:"title"`
	LearningObjectives []string         `json:"learning_objectives"`
	Subtopics          []subtopicOutput `json:"subtopics"`
}

type subtopicOutput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	KeyPoints        []string `json:"key_points"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}

// Outline generates an outline for sel.
func (g *Generator) Outline(ctx context.Context, sel tutor.Selection) (*tutor.Outline, error) {
	ctx = llm.WithPurpose(ctx, "outline")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserPrompt(sel)},
		},
		Schema:      Schema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("outline generation: %w", err)
	}

	var out outlineOutput
	if err := llm.Decode(resp, &out); err != nil {
		return nil, fmt.Errorf("parse outline response: %w", err)
	}

	o := &tutor.Outline{Title: out.Title}
	if o.Title == "" {
		o.Title = sel.DisplayChapter()
	}
	for _, s := range out.Sections {
		sec := tutor.Section{Title: s.Title, LearningObjectives: s.LearningObjectives}
		for _, st := range s.Subtopics {
			minutes := st.EstimatedMinutes
			if minutes <= 0 {
				minutes = 5
			}
			sec.Subtopics = append(sec.Subtopics, tutor.Subtopic{
				Title:            st.Title,
				Description:      st.Description,
				KeyPoints:        st.KeyPoints,
				EstimatedMinutes: minutes,
			})
		}
		o.Sections = append(o.Sections, sec)
	}

	if err := Validate(o); err != nil {
		return nil, fmt.Errorf("generated outline: %w", err)
	}

	g.logger.Info("outline generated",
		zap.String("board", sel.Board),
		zap.String("subject", sel.Subject),
		zap.String("chapter", sel.Chapter),
		zap.Int("sections", len(o.Sections)),
		zap.Int("topics", o.TopicCount()))
	return o, nil
}

func buildUserPrompt(sel tutor.Selection) string {
	var b strings.Builder
	b.WriteString("Create a course outline for the following:\n")
	fmt.Fprintf(&b, "- Education Board: %s\n", sel.DisplayBoard())
	fmt.Fprintf(&b, "- Subject: %s\n", sel.DisplaySubject())
	fmt.Fprintf(&b, "- Chapter: %s\n", sel.DisplayChapter())
	if sel.Topic != "" {
		fmt.Fprintf(&b, "- Specific Focus: %s\n", sel.Topic)
	}
	return b.String()
}

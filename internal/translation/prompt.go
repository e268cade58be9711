package translation

import (
	"context"
	"fmt"
	"strings"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/rag"

	"golang.org/x/text/language"
)

const defaultTopK = 5

// PromptBuilder constructs the system and user prompts for one line.
type PromptBuilder struct {
	project   *config.Project
	retriever *rag.Retriever
	topK      int
}

// NewPromptBuilder creates a prompt builder. retriever may be nil.
func NewPromptBuilder(project *config.Project, retriever *rag.Retriever) *PromptBuilder {
	return &PromptBuilder{
		project:   project,
		retriever: retriever,
		topK:      defaultTopK,
	}
}

const systemPromptTemplate = `You are a professional video game localizer translating an RPG Maker game from %s to %s.

Rules:
1. Translate the text from %s to %s.
2. Preserve ALL placeholders like {{var_1}}, {{var_2}} exactly as-is. They are in-game control codes.
3. Keep line breaks where the original has them. Each line is shown in a message window.
4. Use the glossary translations whenever a glossary term appears.
5. Output ONLY the translation, nothing else.
6. Do NOT add explanations, notes, quotes, or extra text.
7. Match the tone of the speaker and keep the register of the original.
8. For menu and UI text, keep it short and natural.`

// SystemPrompt returns the instructions for translating from one language
// to another, followed by the project context when set.
func (pb *PromptBuilder) SystemPrompt(from, to language.Tag) string {
	src, dst := LanguageName(from), LanguageName(to)
	prompt := fmt.Sprintf(systemPromptTemplate, src, dst, src, dst)

	if pb.project != nil && pb.project.ProjectContext != "" {
		prompt += "\n\nAbout the game:\n" + pb.project.ProjectContext
	}
	return prompt
}

// UserPrompt builds the request for one line. text is the original line
// used for lookups, protected is the line with control codes replaced.
func (pb *PromptBuilder) UserPrompt(ctx context.Context, text, protected string) string {
	var sb strings.Builder

	if pb.retriever != nil {
		sb.WriteString(rag.BuildContextString(pb.retriever.Retrieve(ctx, text, pb.topK)))
	}

	if file := FileFrom(ctx); file != "" && pb.project != nil {
		if note := pb.project.FileContext(file); note != "" {
			sb.WriteString(fmt.Sprintf("=== File Context (%s) ===\n%s\n\n", file, note))
		}
	}

	sb.WriteString(fmt.Sprintf("Text to translate:\n%s", protected))
	return sb.String()
}

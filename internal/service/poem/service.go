package poem

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/inkwell-apps/daily-reflection/internal/model/poet"
)

// Poem is the transient result of one generation: the text plus the poet it
// is attributed to. It is never persisted beyond its session.
type Poem struct {
	Text string `json:"text"`
	Poet string `json:"poet"`
}

// Service turns a day description into a poem voiced by a randomly chosen
// poet. One blocking provider call per invocation; no retry, no caching.
type Service struct {
	poets          poet.Store
	picker         poet.Picker
	systemTemplate string
	chain          compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the generation chain around the supplied chat model.
// The model is injected so tests can substitute one that never touches the
// network.
func NewService(ctx context.Context, poets poet.Store, picker poet.Picker, chatModel model.ChatModel, systemTemplate string) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile poem chain: %w", err)
	}

	return &Service{
		poets:          poets,
		picker:         picker,
		systemTemplate: systemTemplate,
		chain:          runnable,
	}, nil
}

// Generate picks a poet, renders the system instruction and issues one chat
// completion carrying the day description verbatim as the user message.
func (s *Service) Generate(ctx context.Context, dayDescription string) (Poem, error) {
	poetName := s.pickPoet()
	system := RenderSystemPrompt(s.systemTemplate, poetName)

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": system,
		"query":  dayDescription,
	})
	if err != nil {
		return Poem{}, fmt.Errorf("failed to generate poem: %w", err)
	}

	log.Printf("[poem] generated poem poet=%q length=%d", poetName, len(response.Content))
	return Poem{Text: response.Content, Poet: poetName}, nil
}

func (s *Service) pickPoet() string {
	poets := s.poets.List()
	if len(poets) == 0 {
		return UnknownPoet
	}
	return poets[s.picker.Pick(len(poets))].Name
}

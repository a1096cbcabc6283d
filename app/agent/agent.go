// Package agent owns the two language-model calls of the retrieval
// chain: rewriting a follow-up question into a standalone one, and
// generating the final answer from the retrieved context.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"pdfchat/model"
	"pdfchat/types"
)

const contextualizePrompt = `Dado un historial de conversación y la última pregunta del usuario,
que podría hacer referencia a mensajes anteriores, reformulá la pregunta
para que sea comprensible por sí sola. No respondas la pregunta.`

const answerPrompt = `Sos un asistente útil para responder preguntas basadas en el contexto proporcionado. ` +
	`Respondé de forma concisa y clara. ` +
	`Si la pregunta no está relacionada con el contexto, decí 'No lo sé'. ` +
	`Si la pregunta no es clara, pedí más información. ` +
	"\n\nContexto:\n%s"

type Agent struct {
	llm model.GeneratorInterface
}

func New(llm model.GeneratorInterface) *Agent {
	return &Agent{llm: llm}
}

// Reformulate rewrites input into a question intelligible without the
// preceding transcript. Callers skip it when the transcript is empty;
// a model failure propagates, there is no fallback to the raw input.
func (a *Agent) Reformulate(ctx context.Context, transcript []types.Turn, input string) (string, error) {
	turns := make([]types.Turn, 0, len(transcript)+2)
	turns = append(turns, types.Turn{Role: types.RoleSystem, Content: contextualizePrompt})
	turns = append(turns, transcript...)
	turns = append(turns, types.Turn{Role: types.RoleUser, Content: input})

	standalone, err := a.llm.Chat(ctx, turns)
	if err != nil {
		return "", fmt.Errorf("reformulate question: %w", err)
	}
	return strings.TrimSpace(standalone), nil
}

// Answer stuffs the retrieved chunks into the system prompt's context
// block, threads the transcript through as chat messages and issues one
// generation call.
func (a *Agent) Answer(ctx context.Context, input string, chunks []types.Chunk, transcript []types.Turn) (string, error) {
	system := fmt.Sprintf(answerPrompt, buildContext(chunks))

	turns := make([]types.Turn, 0, len(transcript)+2)
	turns = append(turns, types.Turn{Role: types.RoleSystem, Content: system})
	turns = append(turns, transcript...)
	turns = append(turns, types.Turn{Role: types.RoleUser, Content: input})

	logPromptSize(turns)

	answer, err := a.llm.Chat(ctx, turns)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func buildContext(chunks []types.Chunk) string {
	if len(chunks) == 0 {
		return "vacío"
	}
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// logPromptSize reports the assembled prompt size in tokens. Best
// effort: the encoder fetches its BPE tables lazily and may fail
// offline, which only costs us the log line.
func logPromptSize(turns []types.Turn) {
	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}

	count, err := CountTokens(sb.String())
	if err != nil {
		fmt.Printf("[AGENT] token count unavailable: %v\n", err)
		return
	}
	fmt.Printf("[AGENT] prompt size: %d tokens, %d symbols\n", count, sb.Len())
}

func CountTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

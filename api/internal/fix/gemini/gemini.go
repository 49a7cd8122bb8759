package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/prompt"
	"fixmate/api/internal/fix/types"
	"fixmate/api/internal/util"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// newModel returns a fresh client and a model configured for strict JSON
// output. Caller closes the client.
func (e *Engine) newModel(ctx context.Context, system string) (*genai.Client, *genai.GenerativeModel, error) {
	if e.APIKey == "" {
		return nil, nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, nil, err
	}
	m := cl.GenerativeModel(e.Model)
	if m == nil {
		cl.Close()
		return nil, nil, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	return cl, m, nil
}

// generateJSON runs the request with retries on transient failures and
// unmarshals the (fence-stripped) reply into out.
func generateJSON(ctx context.Context, m *genai.GenerativeModel, flow string, out any, parts ...genai.Part) error {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return fmt.Errorf("gemini %s: empty response", flow)
		}
		txt = util.StripCodeFences(strings.TrimSpace(txt))
		if err := json.Unmarshal([]byte(txt), out); err != nil {
			return fmt.Errorf("gemini %s: bad JSON: %w", flow, err)
		}
		return nil
	}
	return lastErr
}

// --------------------------- DIAGNOSE ---------------------------

// Diagnose returns JSON per solution.schema.json. The photo/video template is
// picked on the attachment MIME type.
func (e *Engine) Diagnose(ctx context.Context, in types.DiagnoseRequest) (types.Solution, error) {
	mime := util.PickMIME(in.MimeType, "", in.Media)
	cl, m, err := e.newModel(ctx, prompt.DiagnoseSystem(mime, in.Locale))
	if err != nil {
		return types.Solution{}, err
	}
	defer cl.Close()

	parts := []genai.Part{
		genai.Text(prompt.DiagnoseUser(in.Description)),
		&genai.Blob{MIMEType: mime, Data: in.Media},
	}

	var out types.Solution
	if err := generateJSON(ctx, m, "diagnose", &out, parts...); err != nil {
		return types.Solution{}, err
	}
	if err := out.Validate(); err != nil {
		return types.Solution{}, fmt.Errorf("gemini diagnose: %w", err)
	}
	return out, nil
}

// --------------------------- PART ---------------------------

// IdentifyPart returns JSON per part.schema.json.
func (e *Engine) IdentifyPart(ctx context.Context, in types.PartRequest) (types.PartIdentification, error) {
	mime := util.PickMIME(in.MimeType, "", in.Media)
	cl, m, err := e.newModel(ctx, prompt.PartSystem(in.Locale))
	if err != nil {
		return types.PartIdentification{}, err
	}
	defer cl.Close()

	parts := []genai.Part{
		genai.Text(prompt.PartUser(in.Hint)),
		&genai.Blob{MIMEType: mime, Data: in.Media},
	}

	var out types.PartIdentification
	if err := generateJSON(ctx, m, "part", &out, parts...); err != nil {
		return types.PartIdentification{}, err
	}
	if err := out.Validate(); err != nil {
		return types.PartIdentification{}, fmt.Errorf("gemini part: %w", err)
	}
	return out, nil
}

// --------------------------- VERIFY ---------------------------

// VerifyStep returns JSON per verify.schema.json.
func (e *Engine) VerifyStep(ctx context.Context, in types.VerifyRequest) (types.VerificationResult, error) {
	mime := util.PickMIME(in.MimeType, "", in.Media)
	cl, m, err := e.newModel(ctx, prompt.VerifySystem(in.Locale))
	if err != nil {
		return types.VerificationResult{}, err
	}
	defer cl.Close()

	parts := []genai.Part{
		genai.Text(prompt.VerifyUser(in.Step)),
		&genai.Blob{MIMEType: mime, Data: in.Media},
	}

	var out types.VerificationResult
	if err := generateJSON(ctx, m, "verify", &out, parts...); err != nil {
		return types.VerificationResult{}, err
	}
	if err := out.Validate(); err != nil {
		return types.VerificationResult{}, fmt.Errorf("gemini verify: %w", err)
	}
	return out, nil
}

// --------------------------- CHAT ---------------------------

// chatSession keeps its client open for the lifetime of the conversation.
type chatSession struct {
	cl *genai.Client
	cs *genai.ChatSession
}

// StartChat opens a streaming conversation seeded with the solution context
// (diagnosis + instructions).
func (e *Engine) StartChat(ctx context.Context, solutionContext string, loc types.Locale) (fix.ChatSession, error) {
	if e.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}
	m := cl.GenerativeModel(e.Model)
	if m == nil {
		cl.Close()
		return nil, fmt.Errorf("gemini: model is nil")
	}
	// Free-text replies here; the JSON contract applies to the flows only.
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.ChatSystem(loc))},
	}
	cs := m.StartChat()
	cs.History = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text("Here is the repair plan we are discussing:\n" + solutionContext)}},
		{Role: "model", Parts: []genai.Part{genai.Text("Got it. Ask me anything about this repair.")}},
	}
	return &chatSession{cl: cl, cs: cs}, nil
}

// Send streams the reply; chunks arrive in order from a single iterator.
func (s *chatSession) Send(ctx context.Context, message string, onChunk func(string)) (string, error) {
	it := s.cs.SendMessageStream(ctx, genai.Text(message))
	var b strings.Builder
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return b.String(), err
		}
		chunk := firstText(resp)
		if chunk == "" {
			continue
		}
		b.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return b.String(), nil
}

func (s *chatSession) Close() error {
	return s.cl.Close()
}

// --------------------------- helpers ---------------------------

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

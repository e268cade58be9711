package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rpgm-translator/internal/cache"
	"rpgm-translator/internal/config"
	"rpgm-translator/internal/glossary"
	"rpgm-translator/internal/rag"
)

func geminiReply(text string) geminiResponse {
	return geminiResponse{Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}}}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	project := config.DefaultProject("/game")
	project.ProjectContext = "A comedic fantasy adventure."
	project.FileContexts = map[string]string{"items": "Item names and descriptions."}

	retriever := rag.NewRetriever(glossary.New(glossary.Term{Source: "Harold", Translation: "Гарольд"}))

	c := NewClient("secret", "test-model", 0, NewPromptBuilder(project, retriever))
	c.SetBaseURL(srv.URL + "/")
	c.backoff = time.Millisecond
	return c
}

func TestClientTranslate(t *testing.T) {
	var req geminiRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/test-model:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("api key header = %q, want %q", got, "secret")
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(geminiReply("  {{var_1}}Гарольд получил {{var_2}} золота.\n"))
	})

	ctx := WithFile(context.Background(), "items")
	got, err := c.Translate(ctx, `\C[2]Harold got \V[1] gold.`, "en", "ru")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if want := `\C[2]Гарольд получил \V[1] золота.`; got != want {
		t.Errorf("Translate = %q, want %q", got, want)
	}

	system := req.SystemInstruction.Parts[0].Text
	for _, s := range []string{"from English to Russian", "A comedic fantasy adventure."} {
		if !strings.Contains(system, s) {
			t.Errorf("system prompt missing %q:\n%s", s, system)
		}
	}
	user := req.Contents[0].Parts[0].Text
	for _, s := range []string{"Harold → Гарольд", "Item names and descriptions.", "{{var_1}}Harold got {{var_2}} gold."} {
		if !strings.Contains(user, s) {
			t.Errorf("user prompt missing %q:\n%s", s, user)
		}
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(geminiReply("Да"))
	})

	got, err := c.Translate(context.Background(), "Yes", "en", "ru")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Да" {
		t.Errorf("Translate = %q, want %q", got, "Да")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})

	if _, err := c.Translate(context.Background(), "Yes", "en", "ru"); err == nil {
		t.Fatal("Translate returned nil error on 403")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestClientInvalidLanguage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected API call")
	})
	if _, err := c.Translate(context.Background(), "Yes", "not a tag!", "ru"); err == nil {
		t.Error("Translate with invalid language returned nil error")
	}
}

type countingTranslator struct {
	calls int
}

func (ct *countingTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	ct.calls++
	return strings.ToUpper(text), nil
}

func TestCachedTranslator(t *testing.T) {
	next := &countingTranslator{}
	tr := NewCachedTranslator(next, cache.NewTranslationCache(nil))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := tr.Translate(ctx, "potion", "en", "de")
		if err != nil {
			t.Fatal(err)
		}
		if got != "POTION" {
			t.Errorf("Translate = %q, want %q", got, "POTION")
		}
	}
	if _, err := tr.Translate(ctx, "potion", "en", "fr"); err != nil {
		t.Fatal(err)
	}

	if next.calls != 2 {
		t.Errorf("calls = %d, want 2", next.calls)
	}
}

func TestParseLanguages(t *testing.T) {
	src, dst, err := ParseLanguages("ja", "en-US")
	if err != nil {
		t.Fatalf("ParseLanguages: %v", err)
	}
	if got := LanguageName(src); got != "Japanese" {
		t.Errorf("LanguageName(ja) = %q, want %q", got, "Japanese")
	}
	if dst.String() != "en-US" {
		t.Errorf("target = %q, want %q", dst.String(), "en-US")
	}

	if _, _, err := ParseLanguages("ja", "???"); err == nil {
		t.Error("ParseLanguages(???) returned nil error")
	}
}

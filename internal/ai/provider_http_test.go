// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ---------- Helpers ----------

// newTestServer creates an httptest.Server that responds with the given status
// code and body bytes. The server is closed when the test ends.
func newTestServer(t *testing.T, statusCode int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// captureServer records the last request path, headers and body and
// answers with body.
type captureServer struct {
	*httptest.Server
	path    string
	headers http.Header
	body    []byte
}

func newCaptureServer(t *testing.T, body []byte) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.path = r.URL.Path
		cs.headers = r.Header.Clone()
		cs.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func openAISuccessBody(text string) []byte {
	b, _ := json.Marshal(openAIResponse{
		Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: text}}},
	})
	return b
}

func claudeSuccessBody(text string) []byte {
	b, _ := json.Marshal(claudeResponse{
		Content: []claudeContentBlock{{Type: "text", Text: text}},
	})
	return b
}

func geminiSuccessBody(text string) []byte {
	b, _ := json.Marshal(geminiResponse{
		Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}},
	})
	return b
}

// pngMagic is enough for http.DetectContentType to report image/png.
var pngMagic = []byte("\x89PNG\r\n\x1a\n0000")

// =====================================================================
// OpenAI
// =====================================================================

func TestOpenAIGenerate_Success(t *testing.T) {
	want := `{"title":"Emilie"}`
	srv := newTestServer(t, http.StatusOK, openAISuccessBody(want))

	p := newOpenAI(ProviderConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Generate: got %q, want %q", got, want)
	}
}

func TestOpenAIGenerate_SendsTemperatureAndMessages(t *testing.T) {
	srv := newCaptureServer(t, openAISuccessBody("ok"))

	p := newOpenAI(ProviderConfig{
		APIKey:      "sk-test-12345",
		Model:       "gpt-4o-mini",
		BaseURL:     srv.URL,
		Temperature: 0.9,
	})

	if _, err := p.Generate(context.Background(), "system prompt", "user prompt"); err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	if srv.path != "/chat/completions" {
		t.Errorf("path: got %q, want /chat/completions", srv.path)
	}
	if got := srv.headers.Get("Authorization"); got != "Bearer sk-test-12345" {
		t.Errorf("Authorization header: got %q", got)
	}

	var req openAIRequest
	if err := json.Unmarshal(srv.body, &req); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if req.Temperature != 0.9 {
		t.Errorf("temperature: got %v, want 0.9", req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "system prompt" {
		t.Errorf("system message: got %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "user prompt" {
		t.Errorf("user message: got %+v", req.Messages[1])
	}
}

func TestOpenAIGenerate_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError, []byte(`{"error":"internal"}`))

	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error should mention status 500, got: %v", err)
	}
}

func TestOpenAIGenerate_NoChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{"choices":[]}`))

	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

	if _, err := p.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIGenerateImage_Success(t *testing.T) {
	body, _ := json.Marshal(openAIImageResponse{
		Data: []openAIImageData{{B64JSON: base64.StdEncoding.EncodeToString(pngMagic)}},
	})
	srv := newCaptureServer(t, body)

	p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})

	data, contentType, err := p.GenerateImage(context.Background(), "a child and a dust bunny", "1536x1024")
	if err != nil {
		t.Fatalf("GenerateImage: unexpected error: %v", err)
	}
	if !bytes.Equal(data, pngMagic) {
		t.Errorf("data: got %q", data)
	}
	if contentType != "image/png" {
		t.Errorf("content type: got %q, want image/png", contentType)
	}

	if srv.path != "/images/generations" {
		t.Errorf("path: got %q", srv.path)
	}
	var req openAIImageRequest
	if err := json.Unmarshal(srv.body, &req); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if req.Model != "gpt-image-1" || req.Size != "1536x1024" || req.N != 1 {
		t.Errorf("request: got %+v", req)
	}
	if req.ResponseFormat != "" {
		t.Errorf("gpt-image-1 must not send response_format, got %q", req.ResponseFormat)
	}
}

func TestOpenAIGenerateImage_DallERequestsBase64(t *testing.T) {
	body, _ := json.Marshal(openAIImageResponse{
		Data: []openAIImageData{{B64JSON: base64.StdEncoding.EncodeToString(pngMagic)}},
	})
	srv := newCaptureServer(t, body)

	p := newOpenAI(ProviderConfig{APIKey: "k", ImageModel: "dall-e-3", BaseURL: srv.URL})
	if _, _, err := p.GenerateImage(context.Background(), "p", "1792x1024"); err != nil {
		t.Fatalf("GenerateImage: unexpected error: %v", err)
	}

	var req openAIImageRequest
	json.Unmarshal(srv.body, &req)
	if req.ResponseFormat != "b64_json" {
		t.Errorf("response_format: got %q, want b64_json", req.ResponseFormat)
	}
}

func TestOpenAIGenerateImage_BadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty data", `{"data":[]}`},
		{"not base64", `{"data":[{"b64_json":"!!!not-base64!!!"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, []byte(tt.body))
			p := newOpenAI(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
			if _, _, err := p.GenerateImage(context.Background(), "p", "1536x1024"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// =====================================================================
// Mistral
// =====================================================================

func TestMistralGenerate_UsesChatCompletions(t *testing.T) {
	srv := newCaptureServer(t, openAISuccessBody("bonjour"))

	p := newMistral(ProviderConfig{APIKey: "k", Model: "mistral-large-latest", BaseURL: srv.URL, Temperature: 0.9})

	got, err := p.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != "bonjour" {
		t.Errorf("got %q", got)
	}
	if srv.path != "/chat/completions" {
		t.Errorf("path: got %q", srv.path)
	}
}

// =====================================================================
// Claude
// =====================================================================

func TestClaudeGenerate_Success(t *testing.T) {
	srv := newCaptureServer(t, claudeSuccessBody("hej"))

	p := newClaude(ProviderConfig{APIKey: "ck", Model: "claude-sonnet-4-6", BaseURL: srv.URL, Temperature: 0.9})

	got, err := p.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != "hej" {
		t.Errorf("got %q, want %q", got, "hej")
	}
	if srv.headers.Get("x-api-key") != "ck" {
		t.Errorf("x-api-key: got %q", srv.headers.Get("x-api-key"))
	}

	var req claudeRequest
	if err := json.Unmarshal(srv.body, &req); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if req.System != "system" {
		t.Errorf("system: got %q", req.System)
	}
	if req.Temperature != 0.9 {
		t.Errorf("temperature: got %v", req.Temperature)
	}
}

func TestClampClaudeTemperature(t *testing.T) {
	if got := clampClaudeTemperature(1.4); got != 1 {
		t.Errorf("clamp(1.4) = %v, want 1", got)
	}
	if got := clampClaudeTemperature(0.7); got != 0.7 {
		t.Errorf("clamp(0.7) = %v, want 0.7", got)
	}
}

// =====================================================================
// Gemini
// =====================================================================

func TestGeminiGenerate_Success(t *testing.T) {
	srv := newCaptureServer(t, geminiSuccessBody("godnat"))

	p := newGemini(ProviderConfig{APIKey: "gk", Model: "gemini-2.5-flash", BaseURL: srv.URL, Temperature: 0.9})

	got, err := p.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != "godnat" {
		t.Errorf("got %q", got)
	}
	if srv.path != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path: got %q", srv.path)
	}
	if srv.headers.Get("x-goog-api-key") != "gk" {
		t.Errorf("x-goog-api-key: got %q", srv.headers.Get("x-goog-api-key"))
	}
	if !strings.Contains(string(srv.body), `"temperature":0.9`) {
		t.Errorf("request body missing temperature: %s", srv.body)
	}
}

func TestGeminiGenerateImage(t *testing.T) {
	body, _ := json.Marshal(geminiImageResponse{
		Candidates: []geminiImageCandidate{{
			Content: geminiImageContent{ImageParts: []geminiImagePart{
				{Text: "here you go"},
				{InlineData: &geminiInlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(pngMagic)}},
			}},
		}},
	})
	srv := newCaptureServer(t, body)

	p := newGemini(ProviderConfig{APIKey: "gk", ImageModel: "gemini-2.5-flash-image", BaseURL: srv.URL})

	data, contentType, err := p.GenerateImage(context.Background(), "prompt", "1536x1024")
	if err != nil {
		t.Fatalf("GenerateImage: unexpected error: %v", err)
	}
	if !bytes.Equal(data, pngMagic) || contentType != "image/png" {
		t.Errorf("got %q (%s)", data, contentType)
	}
	if !strings.Contains(string(srv.body), `"aspectRatio":"3:2"`) {
		t.Errorf("request body missing aspect ratio hint: %s", srv.body)
	}
}

func TestGeminiGenerateImage_RequiresModel(t *testing.T) {
	p := newGemini(ProviderConfig{APIKey: "gk"})
	if _, _, err := p.GenerateImage(context.Background(), "p", "1536x1024"); err == nil {
		t.Fatal("expected error when no image model is configured")
	}
}

func TestAspectRatioHint(t *testing.T) {
	tests := map[string]string{
		"1536x1024": "3:2",
		"1024x1024": "1:1",
		"1792x1024": "16:9",
		"1024x1536": "2:3",
		"garbage":   "",
		"0x10":      "",
	}
	for size, want := range tests {
		if got := aspectRatioHint(size); got != want {
			t.Errorf("aspectRatioHint(%q) = %q, want %q", size, got, want)
		}
	}
}

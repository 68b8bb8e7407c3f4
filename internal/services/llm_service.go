package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/justsurfingit/job-tracker/internal/extract"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type LLMService struct {
	// held so the client isn't recreated on every call
	Client llms.Model
}

// NewLLMService initializes the Gemini client.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "title": "Job title (e.g., Senior Backend Engineer)",
    "company": "Name of the company (e.g., Google, StartupInc)",
    "location": "Job location or 'Remote'",
    "salary": "The salary string if explicitly mentioned (e.g., '$100k - $150k'), otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails is the fallback for pages no site extractor recognises.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML, pageURL string) (*extract.JobDetails, error) {
	if len(rawHTML) > 20000 {
		rawHTML = rawHTML[:20000]
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(jobExtractionPrompt, rawHTML))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title    *string `json:"title"`
		Company  *string `json:"company"`
		Location *string `json:"location"`
		Salary   *string `json:"salary"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp)), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	details := &extract.JobDetails{
		Title:    deref(parsed.Title),
		Company:  deref(parsed.Company),
		Location: deref(parsed.Location),
		Salary:   deref(parsed.Salary),
		URL:      pageURL,
	}
	if details.Title == "" {
		return nil, nil
	}
	return details, nil
}

const emailStatusPrompt = `
You read recruiting emails for a job seeker who applied to %s.
Classify what the email means for the application.

Reply with JSON only: {"status": "...", "summary": "..."}
- "status" is one of INTERVIEWING, REJECTED, OFFER, NO_CHANGE.
  Use INTERVIEWING for interview invitations or scheduling, REJECTED for rejections,
  OFFER for offers, NO_CHANGE for acknowledgements, newsletters or anything else.
- "summary" is one sentence.

Subject: %s

Body:
%s
`

type EmailAnalysis struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// AnalyzeEmailStatus asks the model what an email means for an application.
func (s *LLMService) AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (*EmailAnalysis, error) {
	if len(body) > 8000 {
		body = body[:8000]
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(emailStatusPrompt, company, subject, body))
	if err != nil {
		return nil, err
	}
	var result EmailAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(resp)), &result); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w. Raw: %s", err, resp)
	}
	result.Status = strings.ToUpper(strings.TrimSpace(result.Status))
	return &result, nil
}

const identifyRolePrompt = `
An email arrived about one of these job applications at the same company:
%s
Subject: %s

Body:
%s

Reply with only the number of the matching application, or -1 if you cannot tell.
`

// IdentifyJobRole picks which of several same-company applications an email
// is about. It returns -1 when the model cannot decide.
func (s *LLMService) IdentifyJobRole(ctx context.Context, titles []string, subject, body string) int {
	var list strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&list, "%d. %s\n", i, t)
	}
	if len(body) > 8000 {
		body = body[:8000]
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(identifyRolePrompt, list.String(), subject, body))
	if err != nil {
		return -1
	}
	idx, err := strconv.Atoi(strings.Trim(strings.TrimSpace(resp), "."))
	if err != nil || idx < 0 || idx >= len(titles) {
		return -1
	}
	return idx
}

// cleanJSON strips the markdown fences models add despite being told not to.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Package judge talks to a Judge0-compatible code execution service.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/model"

	"golang.org/x/sync/errgroup"
)

const (
	// Limits sent with every case; Judge0 enforces them inside the sandbox.
	CPUTimeLimitSeconds = 2.0
	MemoryLimitKB       = 512000

	maxResponseBytes = 1 << 20
)

type Options struct {
	BaseURL         string
	APIKey          string // RapidAPI-hosted Judge0
	APIHost         string
	AuthToken       string // self-hosted Judge0 with AUTHN enabled
	RequestTimeout  time.Duration
	DispatchTimeout time.Duration
	HTTPClient      *http.Client
}

type Client struct {
	opts Options
	http *http.Client
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts, http: httpClient}
}

type submissionRequest struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	CPUTimeLimit   float64 `json:"cpu_time_limit"`
	MemoryLimit    int     `json:"memory_limit"`
}

type submissionStatus struct {
	ID          StatusID `json:"id"`
	Description string   `json:"description"`
}

type submissionResponse struct {
	Status        *submissionStatus `json:"status"`
	Stdout        *string           `json:"stdout"`
	Stderr        *string           `json:"stderr"`
	CompileOutput *string           `json:"compile_output"`
	Time          *string           `json:"time"`
	Memory        *int              `json:"memory"`
}

// Evaluate runs code against every test case concurrently and returns one
// result per case in input order. Any failed dispatch fails the whole call
// with common.ErrJudgeUnavailable.
func (c *Client) Evaluate(ctx context.Context, sourceCode string, languageID int, cases []model.TestCase) ([]model.TestResult, error) {
	if c.opts.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.DispatchTimeout)
		defer cancel()
	}

	results := make([]model.TestResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	for i, tc := range cases {
		g.Go(func() error {
			res, err := c.evaluateOne(gctx, sourceCode, languageID, tc)
			if err != nil {
				return fmt.Errorf("test case %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) evaluateOne(ctx context.Context, sourceCode string, languageID int, tc model.TestCase) (model.TestResult, error) {
	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	body, err := json.Marshal(submissionRequest{
		SourceCode:     sourceCode,
		LanguageID:     languageID,
		Stdin:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		CPUTimeLimit:   CPUTimeLimitSeconds,
		MemoryLimit:    MemoryLimitKB,
	})
	if err != nil {
		return model.TestResult{}, fmt.Errorf("marshal judge request: %w", err)
	}

	url := c.opts.BaseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.TestResult{}, fmt.Errorf("build judge request: %w: %w", err, common.ErrJudgeUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.opts.APIKey)
		req.Header.Set("X-RapidAPI-Host", c.opts.APIHost)
	}
	if c.opts.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.opts.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.TestResult{}, fmt.Errorf("post to judge: %w: %w", err, common.ErrJudgeUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.TestResult{}, fmt.Errorf("read judge response: %w: %w", err, common.ErrJudgeUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.TestResult{}, fmt.Errorf("judge returned status %d: %w", resp.StatusCode, common.ErrJudgeUnavailable)
	}

	var out submissionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.TestResult{}, fmt.Errorf("decode judge response: %w: %w", err, common.ErrJudgeUnavailable)
	}
	if out.Status == nil {
		return model.TestResult{}, fmt.Errorf("judge response has no status: %w", common.ErrJudgeUnavailable)
	}
	return normalize(tc.ID, out), nil
}

func normalize(testCaseID string, out submissionResponse) model.TestResult {
	res := model.TestResult{
		TestCaseID: testCaseID,
		Passed:     out.Status.ID.Passed(),
		Status:     out.Status.Description,
		Stderr:     out.Stderr,
		Time:       "0",
	}
	if res.Status == "" {
		res.Status = out.Status.ID.Description()
	}
	if out.Stdout != nil {
		if trimmed := strings.TrimSpace(*out.Stdout); trimmed != "" {
			res.Stdout = &trimmed
		}
	}
	if res.Stderr == nil && out.CompileOutput != nil && *out.CompileOutput != "" {
		res.Stderr = out.CompileOutput
	}
	if out.Time != nil {
		res.Time = *out.Time
	}
	if out.Memory != nil {
		res.Memory = *out.Memory
	}
	return res
}

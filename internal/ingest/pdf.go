package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"

	"pricelist/internal"
	"pricelist/internal/config"
)

// PDFExtractor is the external table-extraction collaborator. Layout
// analysis and OCR live entirely on the other side of this interface.
type PDFExtractor interface {
	ExtractTables(ctx context.Context, content []byte) ([]internal.TableCandidate, error)
}

type ExtractorClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type extractorResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Tables  []extractorTable `json:"tables"`
}

type extractorTable struct {
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows"`
	Confidence float64    `json:"confidence"`
	Page       int        `json:"page"`
}

// NewExtractorClient returns nil when no extractor endpoint is configured;
// callers fall back to the plain-text extractor.
func NewExtractorClient(cfg config.Config) PDFExtractor {
	if strings.TrimSpace(cfg.PDFExtractorBaseURL) == "" {
		return nil
	}
	return &ExtractorClient{
		baseURL:    strings.TrimRight(cfg.PDFExtractorBaseURL, "/"),
		token:      cfg.PDFExtractorToken,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PDFExtractorTimeout) * time.Millisecond},
	}
}

func (c *ExtractorClient) ExtractTables(ctx context.Context, content []byte) ([]internal.TableCandidate, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/pdf")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("extractor status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) && attempt < 3 {
				time.Sleep(time.Duration(250*attempt) * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("extractor error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var payload extractorResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode extractor response: %w", err)
		}
		if !payload.Success {
			return nil, fmt.Errorf("extractor unsuccessful: %s", payload.Message)
		}

		out := make([]internal.TableCandidate, 0, len(payload.Tables))
		for _, t := range payload.Tables {
			grid := make([][]string, 0, len(t.Rows)+1)
			grid = append(grid, t.Headers)
			grid = append(grid, t.Rows...)
			out = append(out, internal.TableCandidate{
				Table:      tableFromRows(grid),
				Confidence: t.Confidence,
				Page:       t.Page,
			})
		}
		return out, nil
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// parsePDF prefers the external extractor and falls back to low-fidelity
// plain-text extraction when the extractor is unconfigured or erroring.
// Of several candidate tables, the most confident one wins.
func parsePDF(ctx context.Context, content []byte, extractor PDFExtractor) (internal.IngestResult, error) {
	if extractor != nil {
		candidates, err := extractor.ExtractTables(ctx, content)
		if err == nil && len(candidates) > 0 {
			sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Confidence > candidates[j].Confidence })
			best := candidates[0]
			return internal.IngestResult{
				Kind:     internal.KindPDF,
				Table:    best.Table,
				Warnings: []string{fmt.Sprintf("pdf table from page %d, extraction confidence %.2f", best.Page, best.Confidence)},
			}, nil
		}
		if err != nil {
			return parsePDFFallback(content, fmt.Sprintf("extractor failed (%v), used plain-text fallback", err))
		}
	}
	return parsePDFFallback(content, "no pdf extractor configured, used plain-text fallback")
}

var columnGap = regexp.MustCompile(`\t|\s{2,}`)

func parsePDFFallback(content []byte, warning string) (internal.IngestResult, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return internal.IngestResult{}, fmt.Errorf("open pdf: %w", err)
	}

	grid := [][]string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			cells := columnGap.Split(line, -1)
			grid = append(grid, cells)
		}
	}

	return internal.IngestResult{
		Kind:     internal.KindPDF,
		Table:    tableFromRows(grid),
		Warnings: []string{warning},
	}, nil
}

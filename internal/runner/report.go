package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"specbisect/internal/example"
	"specbisect/internal/signature"
)

// jsonReport is the subset of the runner's JSON formatter output we read.
type jsonReport struct {
	Version  string        `json:"version"`
	Seed     *int64        `json:"seed,omitempty"`
	Examples []jsonExample `json:"examples"`
	Summary  jsonSummary   `json:"summary"`
}

type jsonExample struct {
	ID              string         `json:"id"`
	Description     string         `json:"description"`
	FullDescription string         `json:"full_description"`
	Status          string         `json:"status"`
	FilePath        string         `json:"file_path"`
	LineNumber      int            `json:"line_number"`
	Exception       *jsonException `json:"exception,omitempty"`
}

type jsonException struct {
	Class     string   `json:"class"`
	Message   string   `json:"message"`
	Backtrace []string `json:"backtrace,omitempty"`
}

type jsonSummary struct {
	Duration                     float64 `json:"duration"`
	ExampleCount                 int     `json:"example_count"`
	FailureCount                 int     `json:"failure_count"`
	PendingCount                 int     `json:"pending_count"`
	ErrorsOutsideOfExamplesCount int     `json:"errors_outside_of_examples_count"`
}

// Report is a parsed run report.
type Report struct {
	// All lists every reported example in run order.
	All []example.ID

	// Failures holds failed examples in run order.
	Failures []signature.Failure

	// Seed is the random seed the run used, empty if none was reported.
	Seed string

	// LoadErrors counts errors raised outside of any example.
	LoadErrors int
}

func readReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("report %s is empty", path)
	}
	return parseReport(data)
}

func parseReport(data []byte) (*Report, error) {
	var raw jsonReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	rep := &Report{LoadErrors: raw.Summary.ErrorsOutsideOfExamplesCount}
	if raw.Seed != nil {
		rep.Seed = strconv.FormatInt(*raw.Seed, 10)
	}

	for _, ex := range raw.Examples {
		id, err := example.ParseID(ex.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse report: %w", err)
		}
		rep.All = append(rep.All, id)

		if ex.Status == "failed" {
			f := signature.Failure{ID: id}
			if ex.Exception != nil {
				f.Class = ex.Exception.Class
				f.Message = ex.Exception.Message
			}
			rep.Failures = append(rep.Failures, f)
		}
	}
	return rep, nil
}

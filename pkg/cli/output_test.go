package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"lieworks/lie/pkg/engine/types"
)

func TestPrintResult_JSON(t *testing.T) {
	output := "hello"
	res := &types.Result{Status: types.StatusSuccess, Output: &output}

	var out bytes.Buffer
	if err := PrintResult(&out, &out, res, FormatJSON); err != nil {
		t.Fatalf("PrintResult failed: %v", err)
	}

	var decoded types.Result
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Output == nil || *decoded.Output != "hello" {
		t.Errorf("unexpected output: %v", decoded.Output)
	}
}

func TestPrintResult_TextSeparatesWarning(t *testing.T) {
	output := "partial text"
	res := &types.Result{
		Status:  types.StatusPartial,
		Output:  &output,
		Warning: "time budget exceeded",
	}

	var out, errOut bytes.Buffer
	if err := PrintResult(&out, &errOut, res, FormatText); err != nil {
		t.Fatalf("PrintResult failed: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "partial text" {
		t.Errorf("stdout should carry only the output, got %q", got)
	}
	if !strings.Contains(errOut.String(), "time budget") {
		t.Errorf("warning should go to the error side, got %q", errOut.String())
	}
}

func TestPrintResult_TextError(t *testing.T) {
	res := &types.Result{
		Status: types.StatusError,
		Error:  &types.ErrorInfo{Kind: types.ErrInvalidRequest, Message: "missing prompt"},
	}

	var out, errOut bytes.Buffer
	if err := PrintResult(&out, &errOut, res, FormatText); err != nil {
		t.Fatalf("PrintResult failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout should stay empty on error, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "invalid_request") {
		t.Errorf("expected error kind in output, got %q", errOut.String())
	}
}

func TestExitCode(t *testing.T) {
	output := ""
	tests := []struct {
		name string
		res  *types.Result
		want int
	}{
		{"success", &types.Result{Status: types.StatusSuccess, Output: &output}, 0},
		{"partial", &types.Result{Status: types.StatusPartial, Output: &output}, 0},
		{"invalid request", &types.Result{
			Status: types.StatusError,
			Error:  &types.ErrorInfo{Kind: types.ErrInvalidRequest},
		}, 2},
		{"backend failure", &types.Result{
			Status: types.StatusError,
			Error:  &types.ErrorInfo{Kind: types.ErrBackendFailure},
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.res); got != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldAutoJSON(t *testing.T) {
	assert.True(t, shouldAutoJSON([]string{"vouchers", "--user", "u-1"}, false))
	assert.False(t, shouldAutoJSON([]string{"vouchers", "--user", "u-1", "--json"}, false))
	assert.False(t, shouldAutoJSON([]string{"completion", "zsh"}, false))
	assert.False(t, shouldAutoJSON([]string{"help", "apply"}, false))
	assert.False(t, shouldAutoJSON([]string{"--help"}, false))
	assert.False(t, shouldAutoJSON([]string{"vouchers", "--user", "u-1"}, true))
	assert.False(t, shouldAutoJSON(nil, false))
}

func TestFirstCommand_SkipsFlagValues(t *testing.T) {
	assert.Equal(t, "vouchers", firstCommand([]string{"--user", "u-1", "vouchers"}))
	assert.Equal(t, "apply", firstCommand([]string{"-a", "250000", "apply", "SUMMER10"}))
	assert.Equal(t, "categories", firstCommand([]string{"--json", "categories"}))
}

func TestFirstCommand_ShorthandValueIsNotACommand(t *testing.T) {
	assert.Equal(t, "", firstCommand([]string{"-q", "shops"}))
	assert.Equal(t, "", firstCommand([]string{"--", "vouchers"}))
}

func TestPrintQuickStart_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := printQuickStart(&buf, true)
	require.NoError(t, err)

	var payload quickStartJSON
	err = json.Unmarshal(buf.Bytes(), &payload)
	require.NoError(t, err)

	assert.Equal(t, "shopcli", payload.Name)
	assert.NotEmpty(t, payload.Usage)
	assert.Len(t, payload.Examples, 3)
}

func TestPrintQuickStart_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printQuickStart(&buf, false))

	assert.Contains(t, buf.String(), "usage: shopcli")
	assert.Contains(t, buf.String(), "shopcli apply SUMMER10")
}

func TestPrintCLIErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	err := printCLIErrorJSON(&buf, classifyCLIError(invalidArgsError("bad flag", "shopcli --category rau")))
	require.NoError(t, err)

	var payload map[string]any
	err = json.Unmarshal(buf.Bytes(), &payload)
	require.NoError(t, err)

	errorObject, ok := payload["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGS", errorObject["code"])
	assert.Equal(t, "bad flag", errorObject["message"])
	assert.Equal(t, float64(ExitInvalidArgs), errorObject["exitCode"])
}

func TestClassifyCLIError(t *testing.T) {
	tests := []struct {
		err  error
		code string
		exit int
	}{
		{errors.New("no products match your filters"), "NOT_FOUND", ExitNotFound},
		{errors.New("no vouchers found for user u-1"), "NOT_FOUND", ExitNotFound},
		{fmt.Errorf("fetching products: %w", errors.New("unexpected status 502")), "UPSTREAM_ERROR", ExitUpstream},
		{errors.New("accepts 1 arg(s), received 0"), "INVALID_ARGS", ExitInvalidArgs},
		{errors.New(`invalid argument "abc" for "-a, --amount" flag`), "INVALID_ARGS", ExitInvalidArgs},
		{errors.New("something odd"), "INTERNAL_ERROR", ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := classifyCLIError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.exit, got.ExitCode)
		})
	}
}

func TestClassifyCLIError_KeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", notFoundError("no shops have products matching your filters"))

	got := classifyCLIError(wrapped)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, "no shops have products matching your filters", got.Message)
}

func TestRejectedError(t *testing.T) {
	tests := []struct {
		name string
		res  voucher.ApplyResult
		code string
		exit int
	}{
		{
			name: "business rejection",
			res:  voucher.ApplyResult{Status: voucher.StatusRejected, Code: "BAD", Reason: voucher.MsgInvalidCode, Err: voucher.ErrNotEligible},
			code: "VOUCHER_REJECTED",
			exit: ExitRejected,
		},
		{
			name: "input error",
			res:  voucher.ApplyResult{Status: voucher.StatusRejected, Reason: voucher.MsgEnterCode, Err: voucher.ErrInvalidInput},
			code: "INVALID_ARGS",
			exit: ExitInvalidArgs,
		},
		{
			name: "transport",
			res:  voucher.ApplyResult{Status: voucher.StatusRejected, Code: "X", Reason: voucher.MsgApplyFailed, Err: fmt.Errorf("%w: boom", voucher.ErrTransport)},
			code: "UPSTREAM_ERROR",
			exit: ExitUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var typed *cliError
			require.ErrorAs(t, rejectedError(tt.res), &typed)
			assert.Equal(t, tt.code, typed.Code)
			assert.Equal(t, tt.exit, typed.ExitCode)
		})
	}
}

func TestFormatCLIErrorText(t *testing.T) {
	text := formatCLIErrorText(&cliError{
		Code:        "NOT_FOUND",
		Message:     "no vouchers found",
		Suggestions: []string{"Try another user."},
	})

	assert.Equal(t, "error[not_found]: no vouchers found\nsuggestions:\n  Try another user.", text)
}

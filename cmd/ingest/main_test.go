package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/forecast-ingest/internal/pipeline"
)

type stubRunner struct {
	result string
	calls  int
}

func (s *stubRunner) Run(_ context.Context, trigger any) string {
	s.calls++
	if trigger != nil {
		return "unexpected trigger"
	}
	return s.result
}

func TestRunOnce_ExitCodes(t *testing.T) {
	cases := []struct {
		name   string
		result string
		code   int
	}{
		{"success", pipeline.SuccessMessage, 0},
		{"fetch failure", pipeline.ErrorMessagePrefix + "open-meteo API error: status 503: ", 1},
		{"store failure", pipeline.ErrorMessagePrefix + "put item into Weather: ResourceNotFoundException", 1},
		{"panic", pipeline.ErrorMessagePrefix + "panic: nil client", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &stubRunner{result: tc.result}
			var out bytes.Buffer

			code := runOnce(context.Background(), r, &out)

			assert.Equal(t, tc.code, code)
			assert.Equal(t, 1, r.calls)
			assert.Equal(t, tc.result+"\n", out.String())
		})
	}
}

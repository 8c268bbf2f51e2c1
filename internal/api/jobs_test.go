package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/callcoachhq/callcoach/internal/extract"
)

func extractJobRequest(t *testing.T, env *testEnv, token string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/jobs/extract", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRunExtractJob(t *testing.T) {
	env := newTestEnv(t)
	env.extract.results = []extract.ItemResult{
		{ID: uuid.New(), Status: "success"},
		{ID: uuid.New(), Status: "error", Error: "extract pdf text: malformed xref"},
	}

	resp := doRequest(t, extractJobRequest(t, env, testCronSecret))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Processed int                  `json:"processed"`
		Results   []extract.ItemResult `json:"results"`
	}
	decodeBody(t, resp, &body)
	if body.Processed != 2 {
		t.Errorf("expected processed 2, got %d", body.Processed)
	}
	if len(body.Results) != 2 || body.Results[1].Status != "error" {
		t.Errorf("unexpected results: %+v", body.Results)
	}
}

func TestRunExtractJob_RequiresCronSecret(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"api token is not the cron secret", testAPIToken},
		{"wrong token", "nope"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, extractJobRequest(t, env, tc.token))
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestRunExtractJob_BatchError(t *testing.T) {
	env := newTestEnv(t)
	env.extract.err = errors.New("db down")

	resp := doRequest(t, extractJobRequest(t, env, testCronSecret))
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

package agents_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *agents.Client {
	return agents.NewClient(agents.ClientOptions{ServiceURL: url + "/", Timeout: 5 * time.Second}, nil)
}

func float(v float64) *float64 { return &v }

func TestNewClient(t *testing.T) {
	client := newTestClient("http://localhost:8000")

	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8000", client.BaseURL())
	assert.NotNil(t, client.HTTPClient)
}

func TestClient_Predict(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		expectError  bool
		expectLabel  string
	}{
		{
			name:         "successful prediction",
			status:       http.StatusOK,
			responseBody: `{"pred_label":"CANDIDATE","p_FALSE_POSITIVE":0.1,"p_CANDIDATE":0.7,"p_CONFIRMED":0.2}`,
			expectLabel:  "CANDIDATE",
		},
		{
			name:         "backend rejects input",
			status:       http.StatusBadRequest,
			responseBody: `{"detail":"duration expects hours"}`,
			expectError:  true,
		},
		{
			name:         "model not loaded",
			status:       http.StatusInternalServerError,
			responseBody: `{"detail":"Internal prediction error"}`,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/predict", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var in map[string]interface{}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, "KEPLER", in["mission"])
				assert.Equal(t, 3.5, in["period"])
				assert.NotContains(t, in, "snr")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			prediction, err := client.Predict(context.Background(), agents.ExoplanetInput{
				Mission: agents.MissionKepler,
				Period:  float(3.5),
			})

			if tt.expectError {
				require.Error(t, err)
				var apiErr *agents.APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Nil(t, prediction)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectLabel, prediction.Label)
			assert.InDelta(t, 0.7, prediction.PCandidate, 1e-12)
		})
	}
}

func TestClient_Predict_ValidatesLocally(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(), agents.ExoplanetInput{Depth: float(0.02)})

	assert.ErrorAs(t, err, new(*agents.ValidationError))
	assert.False(t, called)
}

func TestClient_PredictBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict/batch", r.URL.Path)

		var inputs []agents.ExoplanetInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&inputs))
		assert.Len(t, inputs, 2)

		_, _ = w.Write([]byte(`{"results":[{"pred_label":"CONFIRMED"},{"pred_label":"FALSE POSITIVE"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.PredictBatch(context.Background(), []agents.ExoplanetInput{
		{Mission: agents.MissionTESS, Period: float(1.2)},
		{Mission: agents.MissionK2, Depth: float(500)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "CONFIRMED", resp.Results[0].Label)

	_, err = client.PredictBatch(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "Empty payload", err.Error())

	_, err = client.PredictBatch(context.Background(), []agents.ExoplanetInput{{Mission: "HUBBLE"}})
	assert.ErrorAs(t, err, new(*agents.ValidationError))
	assert.Contains(t, err.Error(), "input 0")
}

func TestClient_Agents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/kepler/analyze", "/bibliographic/analyze":
			assert.Equal(t, "Kepler-452 b", body["planet_name"])
			_, _ = w.Write([]byte(`{"success":true,"result":"sheet","tools_used":["archive"]}`))
		case "/grace-hopper/analyze":
			assert.Contains(t, body, "characteristics")
			_, _ = w.Write([]byte(`{"success":false,"error":"agent timed out"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	resp, err := client.AnalyzeKepler(ctx, agents.PlanetQuery{PlanetName: "Kepler-452 b"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"archive"}, resp.ToolsUsed)

	resp, err = client.AnalyzeBibliographic(ctx, agents.PlanetQuery{PlanetName: "Kepler-452 b", Query: "recent papers"})
	require.NoError(t, err)
	assert.Equal(t, "sheet", resp.Result)

	resp, err = client.AnalyzeGraceHopper(ctx, agents.CharacteristicsRequest{
		Characteristics: map[string]any{"period": 3.5},
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "agent timed out", resp.Error)

	_, err = client.AnalyzeKepler(ctx, agents.PlanetQuery{})
	assert.ErrorAs(t, err, new(*agents.ValidationError))

	_, err = client.AnalyzeGraceHopper(ctx, agents.CharacteristicsRequest{})
	assert.ErrorAs(t, err, new(*agents.ValidationError))
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok","model_path":"models/x.pkl","version":"1.0.0"}`))
		case "/kepler/health":
			_, _ = w.Write([]byte(`{"status":"healthy","agent":"Johannes Kepler","version":"1.0.0"}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"detail":"agent offline"}`))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.HTTPClient.RetryMax = 0

	statuses := client.Health(context.Background())
	require.Len(t, statuses, 3)

	assert.Equal(t, "classifier", statuses[0].Name)
	assert.True(t, statuses[0].Healthy)
	assert.Equal(t, "1.0.0", statuses[0].Version)

	assert.True(t, statuses[1].Healthy)
	assert.Equal(t, "Johannes Kepler", statuses[1].Agent)

	assert.Equal(t, "grace_hopper", statuses[2].Name)
	assert.False(t, statuses[2].Healthy)
	assert.Equal(t, "error", statuses[2].Status)
	assert.Equal(t, "agent offline", statuses[2].Error)
}

func TestClient_HealthUnreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	client.HTTPClient.RetryMax = 0

	for _, status := range client.Health(context.Background()) {
		assert.False(t, status.Healthy)
		assert.Equal(t, "unreachable", status.Status)
		assert.NotEmpty(t, status.Error)
	}
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/conversation"
	"github.com/soyeahso/revops/internal/crm"
	"github.com/soyeahso/revops/internal/dataset"
	"github.com/soyeahso/revops/internal/hooks"
	"github.com/soyeahso/revops/internal/llm"
	"github.com/soyeahso/revops/internal/logging"
)

var fixtureTables = map[crm.Kind]string{
	crm.Contacts:        "Contact ID,Full Name,Title\nC1,Ada Park,VP Engineering\nC2,Ben Ortiz,CFO\nC3,Cy Young,COO\n",
	crm.Accounts:        "Account ID,Company Name\nA1,Acme Corp\nA2,Globex\n",
	crm.Deals:           "Opportunity ID,Opportunity Name,Account ID\nO1,Acme Corp - Platform Deal,A1\nO2,Globex Renewal,A2\n",
	crm.SalesActivities: "Contact ID,Activity Type,Date,Summary\nC1,Meeting,2025-01-10,Demo\nC3,Email,2025-01-11,Renewal terms\n",
	crm.Roles:           "Contact ID,Opportunity ID,Role\nC1,O1,Champion\nC2,O1,Finance\nC3,O2,Decision Maker\n",
}

// setupEnv points revops at a fresh home and a CSV data directory.
func setupEnv(t *testing.T) (home, dataDir string) {
	t.Helper()
	home = t.TempDir()
	dataDir = filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	for kind, body := range fixtureTables {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, string(kind)+".csv"), []byte(body), 0o644))
	}

	t.Setenv("REVOPS_HOME", home)
	t.Setenv("REVOPS_DATA_DIR", dataDir)
	t.Setenv("REVOPS_DATA_SOURCE", "")
	t.Setenv("REVOPS_LOG_LEVEL", "silent")
	t.Setenv("OPENAI_API_KEY", "")
	return home, dataDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "revops "))

	out, err = run(t, "version", "--json")
	require.NoError(t, err)
	var b struct {
		Version  string `json:"version"`
		Platform string `json:"platform"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.NotEmpty(t, b.Version)
	assert.Contains(t, b.Platform, "/")
}

func TestConfigCmds(t *testing.T) {
	home, _ := setupEnv(t)

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), strings.TrimSpace(out))

	_, err = run(t, "config", "set", "gateway.port", "9000")
	require.NoError(t, err)
	out, err = run(t, "config", "get", "gateway.port")
	require.NoError(t, err)
	assert.Equal(t, "9000", strings.TrimSpace(out))

	_, err = run(t, "config", "set", "apiKey", "sk-secret")
	require.NoError(t, err)
	out, err = run(t, "config", "get", "apiKey")
	require.NoError(t, err)
	assert.Equal(t, "********", strings.TrimSpace(out))
	out, err = run(t, "config", "get", "apiKey", "--reveal")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", strings.TrimSpace(out))

	out, err = run(t, "config", "get", "gateway")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9000")

	_, err = run(t, "config", "unset", "gateway.port")
	require.NoError(t, err)
	_, err = run(t, "config", "get", "gateway.port")
	assert.Error(t, err)

	_, err = run(t, "config", "get", "a..b")
	assert.Error(t, err)
}

func TestConfigValidateCmd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "config", "validate")
	assert.Error(t, err, "openai without a key is invalid")
	assert.Contains(t, out, "apiKey")

	_, err = run(t, "config", "set", "apiProvider", "ollama")
	require.NoError(t, err)
	out, err = run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Config OK")
}

func TestOpportunitiesCmd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "opportunities")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp - Platform Deal\nGlobex Renewal\n", out)
}

func TestGroupCmd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "group", "--json", "Who", "is", "at", "Acme", "Corp?")
	require.NoError(t, err)
	var payload struct {
		Resolved   bool     `json:"resolved"`
		ContactIDs []string `json:"contactIds"`
		Match      struct {
			OpportunityID string `json:"opportunityId"`
			MatchedBy     string `json:"matchedBy"`
		} `json:"match"`
		Context struct {
			Group      []map[string]any `json:"group"`
			Activities []map[string]any `json:"activities"`
		} `json:"context"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.True(t, payload.Resolved)
	assert.Equal(t, []string{"C1", "C2"}, payload.ContactIDs)
	assert.Equal(t, "O1", payload.Match.OpportunityID)
	assert.Equal(t, "account_name", payload.Match.MatchedBy)
	assert.Len(t, payload.Context.Group, 2)
	assert.Len(t, payload.Context.Activities, 1)

	out, err = run(t, "group", "Globex")
	require.NoError(t, err)
	assert.Contains(t, out, "Globex Renewal")
	assert.Contains(t, out, "C3")
	assert.Contains(t, out, "Renewal terms")

	out, err = run(t, "group", "nothing", "here")
	require.NoError(t, err)
	assert.Contains(t, out, "No account or opportunity name found")
}

func TestGroupCmd_MissingData(t *testing.T) {
	setupEnv(t)
	t.Setenv("REVOPS_DATA_DIR", filepath.Join(t.TempDir(), "missing"))

	_, err := run(t, "group", "Acme")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportAndSQLiteSource(t *testing.T) {
	home, dataDir := setupEnv(t)

	out, err := run(t, "import", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 tables")
	assert.FileExists(t, filepath.Join(home, "state", "revops.db"))

	_, err = run(t, "import", "--keep", "1")
	require.NoError(t, err)

	out, err = run(t, "datasets")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2, "header plus the one kept dataset")

	// The CSV directory is no longer needed once imported.
	require.NoError(t, os.RemoveAll(dataDir))
	t.Setenv("REVOPS_DATA_SOURCE", "sqlite")
	out, err = run(t, "opportunities")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp - Platform Deal\nGlobex Renewal\n", out)
}

func TestDatasetsCmd_Empty(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, "No datasets imported.")
}

func TestAskCmd_RequiresProvider(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "ask", "Who", "is", "at", "Acme?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKey")
}

func TestStatusCmd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not found (using defaults)")
	assert.Contains(t, out, "3 contacts, 2 accounts, 2 deals, 2 opportunities")
	assert.Contains(t, out, "Validation issues")
}

// --- chat and ask against a mock provider ---

func testAssistant(t *testing.T, complete func(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error)) *agent.Assistant {
	t.Helper()
	silent := logging.New(nil, "silent")
	log = silent

	raw := make(map[crm.Kind]crm.Table)
	for kind, body := range fixtureTables {
		tbl, err := dataset.ReadCSV(kind, strings.NewReader(body))
		require.NoError(t, err)
		raw[kind] = tbl
	}
	ds, err := dataset.New("test", raw)
	require.NoError(t, err)

	reg := llm.NewRegistry(silent)
	reg.Register("mock", &llm.MockClient{ProviderName: "mock", CompleteFunc: complete})
	reg.SetFallback("mock")
	return agent.NewAssistant(agent.AssistantConfig{Model: "mock"}, reg, dataset.NewStaticHolder(ds, nil, silent), nil, silent)
}

func echoQuestion(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	q := prompt[strings.LastIndex(prompt, "\n\n")+2:]
	return &llm.CompletionResponse{Content: "answer to " + strings.TrimSpace(q)}, nil
}

func TestRunChat(t *testing.T) {
	a := testAssistant(t, echoQuestion)
	hm := hooks.NewManager(logging.New(nil, "silent"))
	var mu sync.Mutex
	var events []string
	for _, e := range []string{hooks.EventSessionStart, hooks.EventSessionEnd} {
		hm.On(e, "record", func(_ context.Context, p hooks.Payload) error {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, p.Event)
			return nil
		})
	}

	in := strings.NewReader("Who leads Acme Corp?\n\nAnd Globex?\n/quit\nnever asked\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), in, &out, a, hm, nil))

	text := out.String()
	assert.Contains(t, text, chatBanner)
	assert.NotContains(t, text, "never asked")

	final := text[strings.Index(text, "answer to Who leads Acme Corp?")+1:]
	second := strings.Index(final, "And Globex?")
	first := strings.Index(final, "Who leads Acme Corp?")
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, first)
	assert.Less(t, second, first, "latest interaction is drawn first")

	assert.Equal(t, []string{hooks.EventSessionStart, hooks.EventSessionEnd}, events)
}

func TestRunChat_FailureKeepsSession(t *testing.T) {
	calls := 0
	a := testAssistant(t, func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("rate limited")
		}
		return &llm.CompletionResponse{Content: "fine now"}, nil
	})

	in := strings.NewReader("Acme Corp?\nAcme Corp?\n/history\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), in, &out, a, nil, nil))

	text := out.String()
	assert.Contains(t, text, "Something went wrong: rate limited")
	assert.Contains(t, text, "fine now")
	assert.Equal(t, 2, calls)
}

func TestRunChat_OverlongLineIsRejected(t *testing.T) {
	a := testAssistant(t, echoQuestion)
	long := strings.Repeat("x", maxQuestionBytes+10)

	in := strings.NewReader(long + "\nWho is at Globex?\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), in, &out, a, nil, nil))

	text := out.String()
	assert.Contains(t, text, "was not sent")
	assert.Contains(t, text, "answer to Who is at Globex?")
	assert.NotContains(t, text, "answer to x")
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader("short\n"+strings.Repeat("y", 40)+"\nlast"), 16)

	line, tooLong, err := readLine(r, 10)
	require.NoError(t, err)
	assert.False(t, tooLong)
	assert.Equal(t, "short\n", line)

	_, tooLong, err = readLine(r, 10)
	require.NoError(t, err)
	assert.True(t, tooLong)

	line, tooLong, err = readLine(r, 10)
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, tooLong)
	assert.Equal(t, "last", line)
}

func TestAskOnce(t *testing.T) {
	a := testAssistant(t, echoQuestion)
	sess := conversation.NewSession()

	var out bytes.Buffer
	require.NoError(t, askOnce(context.Background(), &out, a, sess, "Who is at Globex?", true))
	assert.Contains(t, out.String(), "Globex Renewal")
	assert.Contains(t, out.String(), "answer to Who is at Globex?")
	assert.Contains(t, out.String(), "1 contacts")
	assert.Equal(t, 1, sess.Len())

	out.Reset()
	err := askOnce(context.Background(), &out, a, sess, "   ", true)
	assert.ErrorIs(t, err, agent.ErrEmptyQuestion)
	assert.Contains(t, out.String(), "Something went wrong")
}

func TestRenderHistory_MostRecentFirst(t *testing.T) {
	var out bytes.Buffer
	renderHistory(&out, []conversation.Interaction{
		{Question: "second question", Answer: "second answer", Timestamp: "Mar 05, 2025 02:08 PM"},
		{Question: "first question", Answer: "first answer", Timestamp: "Mar 05, 2025 02:07 PM"},
	}, nil)

	text := out.String()
	assert.Less(t, strings.Index(text, "second question"), strings.Index(text, "second answer"))
	assert.Less(t, strings.Index(text, "second answer"), strings.Index(text, "first question"))
	assert.Contains(t, text, "Mar 05, 2025 02:07 PM")
}

func TestFailureMessage(t *testing.T) {
	cerr := &agent.CompletionError{Provider: "openai", Err: errors.New("timeout")}
	assert.Equal(t, "Something went wrong: timeout", failureMessage(cerr))
	assert.Equal(t, "Something went wrong: boom", failureMessage(errors.New("boom")))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", 42},
		{"0.7", 0.7},
		{"gpt-4o", "gpt-4o"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.in), tt.in)
	}
}

package main

import (
	"encoding/json"
	"testing"
)

func TestStartReportsReachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	// The test daemon answers on the socket but its workflow is idle, so
	// start reports reachability instead of launching a second process.
	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "daemon reachable")
}

func TestProvidersListsConfigurationState(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"providers", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("providers: %v", err)
	}

	var summaries []providerSummary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(summaries) != 4 {
		t.Fatalf("expected 4 providers, got %d", len(summaries))
	}

	byName := make(map[string]providerSummary, len(summaries))
	for _, s := range summaries {
		byName[s.Name] = s
	}
	openai := byName["openai"]
	if !openai.Configured || !openai.Active {
		t.Fatalf("expected openai configured and active, got %+v", openai)
	}
	if byName["deepgram"].Configured {
		t.Fatal("expected deepgram to be unconfigured")
	}
}

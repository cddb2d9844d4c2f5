package consulsd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(config.ConsulConfig{Address: srv.Listener.Addr().String()}, logging.NewWithWriter(io.Discard, false, true))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestRegisterServiceSendsCheck(t *testing.T) {
	var got map[string]interface{}
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agent/service/register" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := client.RegisterService(Registration{
		Name:     "web-production",
		Port:     8080,
		Tags:     []string{"vault-integrated"},
		CheckURL: "http://web:8080/health",
	})
	if err != nil {
		t.Fatalf("RegisterService failed: %v", err)
	}

	if got["Name"] != "web-production" {
		t.Errorf("name: %v", got["Name"])
	}
	check, ok := got["Check"].(map[string]interface{})
	if !ok {
		t.Fatalf("check missing: %v", got)
	}
	if check["HTTP"] != "http://web:8080/health" {
		t.Errorf("check url: %v", check["HTTP"])
	}
	if check["Interval"] != DefaultCheckInterval {
		t.Errorf("check interval: %v", check["Interval"])
	}
}

func TestDiscoverService(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health/service/web-production" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("passing") == "" {
			t.Error("expected passing filter")
		}
		fmt.Fprint(w, `[
			{"Service": {"ID": "web-1", "Address": "10.0.0.1", "Port": 8080, "Tags": ["a"]}},
			{"Service": {"ID": "web-2", "Address": "10.0.0.2", "Port": 8080, "Tags": ["b"]}}
		]`)
	}))

	instances, err := client.DiscoverService("web-production")
	if err != nil {
		t.Fatalf("DiscoverService failed: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	if instances[0].ID != "web-1" || instances[0].Address != "10.0.0.1" || instances[0].Port != 8080 {
		t.Errorf("instance mismatch: %+v", instances[0])
	}
}

func TestKVRoundTrip(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte(`{"vault_path":"secret/applications/web/production"}`))
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			fmt.Fprint(w, "true")
		case http.MethodGet:
			fmt.Fprintf(w, `[{"Key": "services/web/production/config", "Value": %q}]`, value)
		}
	}))

	if err := client.PutKV("services/web/production/config", "{}"); err != nil {
		t.Fatalf("PutKV failed: %v", err)
	}

	got, found, err := client.GetKV("services/web/production/config")
	if err != nil {
		t.Fatalf("GetKV failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if got != `{"vault_path":"secret/applications/web/production"}` {
		t.Errorf("unexpected value: %s", got)
	}
}

func TestGetKVMissing(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, found, err := client.GetKV("absent")
	if err != nil {
		t.Fatalf("GetKV failed: %v", err)
	}
	if found {
		t.Error("expected key to be absent")
	}
}

func TestAgentInfo(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Config": {"Version": "1.21.0", "Datacenter": "dc1", "Server": true}}`)
	}))

	info, err := client.Agent()
	if err != nil {
		t.Fatalf("Agent failed: %v", err)
	}
	if info.Version != "1.21.0" || info.Datacenter != "dc1" || !info.Server {
		t.Errorf("unexpected agent info: %+v", info)
	}
}

package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierapi/courier"
	"github.com/courierapi/courier/internal/credstore"
)

// resetFlags gives each test a clean global flag state. --no-auth is on by
// default so tests never touch a real keyring.
func resetFlags(t *testing.T) {
	t.Helper()
	prev := flags
	flags = rootFlags{Timeout: courier.DefaultTimeout, NoAuth: true}
	t.Cleanup(func() { flags = prev })
}

// withMemoryKeyring routes credstore at an in-memory keyring for the test.
func withMemoryKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := credstore.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRequestSuccess(t *testing.T) {
	resetFlags(t)

	var gotMethod, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"id":7,"name":"alice"}`))
	}))
	defer server.Close()

	out, err := runCommand(t, newRequestCmd(), "get", server.URL, "-q", "page=2")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "page=2", gotQuery)
	assert.Contains(t, out, `"name": "alice"`)
}

func TestRequestSendsJSONBody(t *testing.T) {
	resetFlags(t)

	var gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.String()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := runCommand(t, newRequestCmd(), "post", server.URL, "-d", "user=a", "-d", "count=3")
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"user":"a","count":3}`, gotBody)
}

func TestRequestBackendErrorPrintsPayload(t *testing.T) {
	resetFlags(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"bad_credentials"}`))
	}))
	defer server.Close()

	out, err := runCommand(t, newRequestCmd(), "post", server.URL)
	require.Error(t, err)

	assert.Contains(t, out, "bad_credentials")
	assert.Equal(t, exitBackend, ExitCode(err))
}

func TestRequestTransportErrorExitCode(t *testing.T) {
	resetFlags(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	_, err := runCommand(t, newRequestCmd(), "get", server.URL)
	require.Error(t, err)
	assert.Equal(t, exitTransport, ExitCode(err))
}

func TestRequestJQExpression(t *testing.T) {
	resetFlags(t)
	flags.JQ = ".token"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"abc123","ttl":60}`))
	}))
	defer server.Close()

	out, err := runCommand(t, newRequestCmd(), "get", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "\"abc123\"\n", out)
}

func TestRequestAttachesStoredToken(t *testing.T) {
	resetFlags(t)
	withMemoryKeyring(t)
	flags.NoAuth = false

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	require.NoError(t, credstore.SaveToken(hostOf(server.URL), "sekret"))

	_, err := runCommand(t, newRequestCmd(), "get", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekret", gotAuth)
}

func TestRequestExplicitAuthorizationWins(t *testing.T) {
	resetFlags(t)
	withMemoryKeyring(t)
	flags.NoAuth = false

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	require.NoError(t, credstore.SaveToken(hostOf(server.URL), "stored"))

	_, err := runCommand(t, newRequestCmd(), "get", server.URL, "-H", "Authorization: Bearer explicit")
	require.NoError(t, err)
	assert.Equal(t, "Bearer explicit", gotAuth)
}

func TestRequestNoAuthSkipsKeyring(t *testing.T) {
	resetFlags(t)
	restore := credstore.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		t.Error("keyring opened despite --no-auth")
		return keyring.NewArrayKeyring(nil), nil
	})
	t.Cleanup(restore)

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := runCommand(t, newRequestCmd(), "get", server.URL)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestRequestInvalidQueryPair(t *testing.T) {
	resetFlags(t)

	_, err := runCommand(t, newRequestCmd(), "get", "http://example.test", "-q", "noequals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestBuildDescriptorBodyOnlyWhenGiven(t *testing.T) {
	resetFlags(t)

	desc, err := buildDescriptor("GET", "http://example.test", []string{"page=2"}, nil, nil)
	require.NoError(t, err)
	assert.False(t, desc.HasBody())

	desc, err = buildDescriptor("POST", "http://example.test", nil, []string{"user=a"}, nil)
	require.NoError(t, err)
	assert.True(t, desc.HasBody())
	assert.Equal(t, "a", desc.Body["user"])
}

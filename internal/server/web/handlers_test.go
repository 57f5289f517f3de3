package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shorts/internal/server/auth"
	"shorts/internal/server/database"
	"shorts/internal/server/service"

	"golang.org/x/crypto/bcrypt"
)

const testInvite = "sesame"

// newTestServer wires the full stack against a throwaway database and
// returns a server plus a client that keeps cookies and never follows
// redirects.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "shorts.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	sessions := auth.NewSessions([]byte("test-secret"), time.Hour)
	links := service.NewLinkService(repo)
	accounts := service.NewAccountService(repo, testInvite, bcrypt.MinCost)

	handler := NewHandler(links, accounts, sessions, db)
	server := httptest.NewServer(SetupRouter(handler))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return server, client
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.Post(target, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST %s failed: %v", target, err)
	}
	return resp
}

func getBody(t *testing.T, client *http.Client, target string) string {
	t.Helper()
	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("GET %s failed: %v", target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

func TestEndToEndFlow(t *testing.T) {
	server, client := newTestServer(t)

	// Register with the configured invite; a session is issued.
	resp := postForm(t, client, server.URL+"/account/create", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw"},
		"invite":   {testInvite},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("register: expected 302, got %d", resp.StatusCode)
	}
	serverURL, _ := url.Parse(server.URL)
	var haveSession bool
	for _, cookie := range client.Jar.Cookies(serverURL) {
		if cookie.Name == "session" && cookie.Value != "" {
			haveSession = true
		}
	}
	if !haveSession {
		t.Fatal("register: expected a session cookie to be set")
	}

	// Create a link while authenticated.
	resp = postForm(t, client, server.URL+"/submit", url.Values{
		"url":   {"https://example.com"},
		"short": {"ex"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("submit: expected 302, got %d", resp.StatusCode)
	}

	// The index lists the new link.
	if body := getBody(t, client, server.URL+"/"); !strings.Contains(body, "/x/ex") {
		t.Error("index does not list the created link")
	}

	// Resolving redirects to the target and records a hit.
	resp, err := client.Get(server.URL + "/x/ex")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("resolve: expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com" {
		t.Errorf("resolve: expected redirect to https://example.com, got %s", loc)
	}

	// The recorded hit shows up in the listing.
	if body := getBody(t, client, server.URL+"/"); !strings.Contains(body, "<td>1</td>") {
		t.Error("index does not show the recorded hit")
	}

	// Delete the link.
	resp, err = client.Get(server.URL + "/delete/ex")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("delete: expected 302, got %d", resp.StatusCode)
	}

	// Resolving the deleted token lands on the not-found page.
	resp, err = client.Get(server.URL + "/x/ex")
	if err != nil {
		t.Fatalf("resolve after delete failed: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "/notfound" {
		t.Errorf("expected redirect to /notfound, got %s", loc)
	}
}

func TestUnauthenticatedMutationsAreRejected(t *testing.T) {
	server, client := newTestServer(t)

	t.Run("submit without a session", func(t *testing.T) {
		resp := postForm(t, client, server.URL+"/submit", url.Values{
			"url":   {"https://example.com"},
			"short": {"nope"},
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("expected redirect to /, got %s", loc)
		}

		// Nothing was written.
		if body := getBody(t, client, server.URL+"/"); strings.Contains(body, "/x/nope") {
			t.Error("link created without authentication")
		}
	})

	t.Run("delete without a session", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/delete/anything")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("expected redirect to /, got %s", loc)
		}
	})
}

func TestLoginFlow(t *testing.T) {
	server, client := newTestServer(t)

	resp := postForm(t, client, server.URL+"/account/create", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw"},
		"invite":   {testInvite},
	})
	resp.Body.Close()

	// Log out, then log back in with the right password.
	resp, err := client.Get(server.URL + "/account/logout")
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	resp.Body.Close()

	t.Run("wrong password shows an error flash, no session", func(t *testing.T) {
		resp := postForm(t, client, server.URL+"/account/login", url.Values{
			"email":    {"a@x.com"},
			"password": {"wrong"},
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}

		body := getBody(t, client, server.URL+"/")
		if !strings.Contains(body, "Invalid email or password.") {
			t.Error("expected the invalid-credentials flash on the index")
		}
		if strings.Contains(body, "Signed in as") {
			t.Error("expected no session after a failed login")
		}
	})

	t.Run("unknown email behaves like a wrong password", func(t *testing.T) {
		resp := postForm(t, client, server.URL+"/account/login", url.Values{
			"email":    {"ghost@x.com"},
			"password": {"pw"},
		})
		resp.Body.Close()

		body := getBody(t, client, server.URL+"/")
		if !strings.Contains(body, "Invalid email or password.") {
			t.Error("expected the invalid-credentials flash on the index")
		}
	})

	t.Run("correct credentials sign in", func(t *testing.T) {
		resp := postForm(t, client, server.URL+"/account/login", url.Values{
			"email":    {"a@x.com"},
			"password": {"pw"},
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}

		body := getBody(t, client, server.URL+"/")
		if !strings.Contains(body, "Signed in as a@x.com") {
			t.Error("expected the admin view after login")
		}
	})
}

func TestFlashIsOneShot(t *testing.T) {
	server, client := newTestServer(t)

	// Trigger an error flash.
	resp := postForm(t, client, server.URL+"/submit", url.Values{"short": {"x"}})
	resp.Body.Close()

	first := getBody(t, client, server.URL+"/")
	if !strings.Contains(first, "You must be logged in to do that.") {
		t.Fatal("expected the flash on the first render")
	}

	second := getBody(t, client, server.URL+"/")
	if strings.Contains(second, "You must be logged in to do that.") {
		t.Error("flash survived a second render")
	}
}

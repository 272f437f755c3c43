// Package main provides a CI-friendly HTTP smoke test for the ozran auth flow.
//
// It validates:
//   - register (201) and duplicate register (400 duplicate_identity)
//   - login sets an HttpOnly session cookie
//   - auth-status accepts the cookie, rejects its absence (401) and a forged token (403)
//   - logout clears the cookie so auth-status returns 401 again
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type smokeClient struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	verbose bool
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		baseURL    = flag.String("url", "http://127.0.0.1:10000", "Server base URL")
		password   = flag.String("password", "Smoke123!", "Password for the throwaway account")
		cookieName = flag.String("cookie", "token", "Session cookie name")
		timeout    = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		fatalf("cookie jar: %v", err)
	}
	c := &smokeClient{
		base:    base,
		http:    &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
		timeout: *timeout,
		verbose: *verbose,
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	username := "smoke_" + suffix
	email := "smoke+" + suffix + "@example.com"

	register := map[string]string{
		"username":        username,
		"email":           email,
		"password":        *password,
		"confirmPassword": *password,
	}

	c.mustStatus("register", http.MethodPost, "/register", register, http.StatusCreated, "")
	c.mustStatus("register duplicate", http.MethodPost, "/register", register, http.StatusBadRequest, "duplicate_identity")
	c.mustStatus("login wrong password", http.MethodPost, "/login",
		map[string]string{"email": email, "password": *password + "x"}, http.StatusBadRequest, "invalid_credentials")

	body := c.mustStatus("login", http.MethodPost, "/login",
		map[string]string{"email": email, "password": *password}, http.StatusOK, "")
	var user struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.Username != username || user.Email != email {
		fatalf("login: unexpected body %s", body)
	}
	if c.sessionCookie(*cookieName) == "" {
		fatalf("login: no %q cookie stored", *cookieName)
	}

	c.mustStatus("auth-status", http.MethodGet, "/auth-status", nil, http.StatusOK, "")

	saved := c.http.Jar
	c.http.Jar = forgedJar(c.base, *cookieName)
	c.mustStatus("auth-status forged", http.MethodGet, "/auth-status", nil, http.StatusForbidden, "forbidden")
	c.http.Jar = saved

	c.mustStatus("logout", http.MethodPost, "/logout", nil, http.StatusOK, "")
	if c.sessionCookie(*cookieName) != "" {
		fatalf("logout: %q cookie still present", *cookieName)
	}
	c.mustStatus("auth-status after logout", http.MethodGet, "/auth-status", nil, http.StatusUnauthorized, "unauthorized")

	fmt.Printf("OK: user=%s base=%s\n", username, c.base)
}

func (c *smokeClient) mustStatus(step, method, path string, payload any, wantStatus int, wantCode string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			fatalf("%s: marshal: %v", step, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		fatalf("%s: request: %v", step, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s: %v", step, err)
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("%s: read body: %v", step, err)
	}
	if c.verbose {
		fmt.Printf("%-26s %d %s\n", step, resp.StatusCode, strings.TrimSpace(string(out)))
	}

	if resp.StatusCode != wantStatus {
		fatalf("%s: status=%d want=%d body=%s", step, resp.StatusCode, wantStatus, out)
	}
	if wantCode != "" {
		var e apiError
		if err := json.Unmarshal(out, &e); err != nil || e.Error.Code != wantCode {
			fatalf("%s: error code mismatch, want %q body=%s", step, wantCode, out)
		}
	}
	return out
}

func (c *smokeClient) sessionCookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// forgedJar holds a structurally valid HS256 token signed with the wrong key.
func forgedJar(base *url.URL, name string) http.CookieJar {
	jar, _ := cookiejar.New(nil)
	const forged = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJpZCI6ImZvcmdlZCIsImV4cCI6NDEwMjQ0NDgwMCwiaWF0IjoxNzAwMDAwMDAwfQ." +
		"c2lnbmF0dXJlLW5vdC12YWxpZA"
	jar.SetCookies(base, []*http.Cookie{{Name: name, Value: forged, Path: "/"}})
	return jar
}

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}

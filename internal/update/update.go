// Package update checks GitHub releases for a newer vb build.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	DefaultReleasesURL = "https://api.github.com/repos/viber/viber-cli/releases/latest"
	CheckTimeout       = 5 * time.Second

	// EnvDisable turns the check off when set to any non-empty value.
	EnvDisable = "VIBER_NO_UPDATE_CHECK"
)

// Release is the subset of the GitHub release object we read.
type Release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// CheckResult describes the outcome of a successful check.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateURL       string
	UpdateAvailable bool
}

// Notice returns the one-line hint printed after `vb version`, or "".
func (r *CheckResult) Notice() string {
	if r == nil || !r.UpdateAvailable {
		return ""
	}
	return fmt.Sprintf("A newer vb is available: %s (current %s) %s", r.LatestVersion, r.CurrentVersion, r.UpdateURL)
}

// Checker queries a releases endpoint.
type Checker struct {
	URL  string
	HTTP *http.Client
}

// NewChecker returns a checker for the public releases URL.
func NewChecker() *Checker {
	return &Checker{URL: DefaultReleasesURL, HTTP: &http.Client{Timeout: CheckTimeout}}
}

// Check compares currentVersion with the latest release. It returns nil
// whenever the check cannot be completed; it never blocks the CLI.
func (c *Checker) Check(ctx context.Context, currentVersion string) *CheckResult {
	current := normalizeVersion(currentVersion)
	if !semver.IsValid(current) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}
	if release.Draft || release.Prerelease {
		return nil
	}
	latest := normalizeVersion(release.TagName)
	if !semver.IsValid(latest) {
		return nil
	}

	return &CheckResult{
		CurrentVersion:  strings.TrimPrefix(currentVersion, "v"),
		LatestVersion:   strings.TrimPrefix(latest, "v"),
		UpdateURL:       release.HTMLURL,
		UpdateAvailable: semver.Compare(latest, current) > 0,
	}
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "dev" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

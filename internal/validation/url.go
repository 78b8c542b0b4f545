// Package validation checks user-supplied URLs and message input before
// they reach the Viber API.
//
// URL checks guard against server-side request forgery: API hosts and
// webhook URLs may not point at private networks or cloud metadata
// services unless private targets were explicitly allowed (VIBER_ALLOW_PRIVATE
// or SetAllowPrivate). Proxy URLs are allowed to be private because
// forwarding proxies usually run next to the caller, but metadata
// endpoints stay blocked everywhere.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var allowPrivate atomic.Bool

// privateNetworks holds the reserved ranges parsed once at init.
var privateNetworks []*net.IPNet

// lookupIP resolves hostnames; tests replace it.
var lookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

const resolveTimeout = 5 * time.Second

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("VIBER_ALLOW_PRIVATE")))
	allowPrivate.Store(v)

	privateCIDRs := []string{
		"10.0.0.0/8",      // RFC1918
		"172.16.0.0/12",   // RFC1918
		"192.168.0.0/16",  // RFC1918
		"100.64.0.0/10",   // RFC6598
		"169.254.0.0/16",  // RFC3927
		"192.0.0.0/24",    // RFC6890
		"192.0.2.0/24",    // RFC5737
		"198.18.0.0/15",   // RFC2544
		"198.51.100.0/24", // RFC5737
		"203.0.113.0/24",  // RFC5737
		"240.0.0.0/4",     // RFC1112
		"fc00::/7",        // RFC4193
		"fe80::/10",       // RFC4291
		"ff00::/8",        // RFC4291
		"::1/128",         // RFC4291
		"::/128",          // RFC4291
		"100::/64",        // RFC6666
		"2001::/32",       // RFC4380
		"2001:10::/28",    // RFC4843
		"2001:db8::/32",   // RFC3849
	}
	privateNetworks = make([]*net.IPNet, 0, len(privateCIDRs))
	for _, cidr := range privateCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// SetAllowPrivate enables or disables private and loopback targets.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

// AllowPrivateEnabled reports whether private targets are allowed.
func AllowPrivateEnabled() bool {
	return allowPrivate.Load()
}

type policy struct {
	httpsOnly    bool
	allowPrivate bool
}

// ValidateAPIHost validates the Viber API origin.
func ValidateAPIHost(rawURL string) error {
	return validate(rawURL, policy{allowPrivate: allowPrivate.Load()})
}

// ValidateProxyURL validates a forwarding proxy URL. Private and loopback
// addresses are accepted.
func ValidateProxyURL(rawURL string) error {
	return validate(rawURL, policy{allowPrivate: true})
}

// ValidateWebhookURL validates a URL passed to set_webhook. Viber only
// delivers callbacks over HTTPS.
func ValidateWebhookURL(rawURL string) error {
	return validate(rawURL, policy{httpsOnly: true, allowPrivate: allowPrivate.Load()})
}

func validate(rawURL string, p policy) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if p.httpsOnly {
		if parsed.Scheme != "https" {
			return fmt.Errorf("invalid URL scheme: only https is allowed, got %q", parsed.Scheme)
		}
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if !p.allowPrivate && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return validateIP(ip, p.allowPrivate)
	}
	if p.allowPrivate && isLocalhost(hostname) {
		return nil
	}
	return validateDomain(hostname, p.allowPrivate)
}

func isLocalhost(hostname string) bool {
	h := strings.ToLower(hostname)
	switch h {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0", "::":
		return true
	}
	return strings.HasSuffix(h, ".localhost")
}

func isCloudMetadata(hostname string) bool {
	h := strings.ToLower(hostname)
	switch h {
	case "169.254.169.254", "metadata.google.internal", "metadata", "instance-data", "fd00:ec2::254":
		return true
	}
	return strings.HasSuffix(h, ".metadata.google.internal")
}

func validateIP(ip net.IP, allowPriv bool) error {
	if ip.Equal(net.ParseIP("169.254.169.254")) || ip.Equal(net.ParseIP("fd00:ec2::254")) {
		return fmt.Errorf("cloud metadata IP address is not allowed")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local IP addresses are not allowed")
	}
	if allowPriv {
		return nil
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified IP addresses are not allowed")
	}
	if ip.IsLoopback() {
		return fmt.Errorf("loopback IP addresses are not allowed")
	}
	if isPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed")
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// validateDomain resolves hostname and checks every address. Names that do
// not resolve are accepted; the request will fail later with a transport error.
func validateDomain(hostname string, allowPriv bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	ips, err := lookupIP(ctx, hostname)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := validateIP(ip, allowPriv); err != nil {
			return fmt.Errorf("domain %q resolves to forbidden IP %s: %w", hostname, ip.String(), err)
		}
	}
	return nil
}

package scraper

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RobotsChecker answers robots.txt questions, caching rules per origin
type RobotsChecker struct {
	httpClient *HTTPClient
	agentToken string
	rules      map[string]*RobotRules
	mu         sync.RWMutex
}

// RobotRules contains the parsed rules that apply to our agent on one origin
type RobotRules struct {
	Disallowed []string
	Allowed    []string
	CrawlDelay time.Duration
	Sitemaps   []string
}

// NewRobotsChecker creates a checker. agentToken is matched case-insensitively
// against User-agent lines in addition to "*".
func NewRobotsChecker(httpClient *HTTPClient, agentToken string) *RobotsChecker {
	return &RobotsChecker{
		httpClient: httpClient,
		agentToken: strings.ToLower(agentToken),
		rules:      make(map[string]*RobotRules),
	}
}

// Rules returns the rules for rawURL's origin, fetching robots.txt on first use.
// An unreachable or broken robots.txt yields empty rules.
func (r *RobotsChecker) Rules(ctx context.Context, rawURL string) (*RobotRules, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	origin := strings.ToLower(u.Scheme + "://" + u.Host)

	r.mu.RLock()
	rules, ok := r.rules[origin]
	r.mu.RUnlock()
	if ok {
		return rules, nil
	}

	rules = &RobotRules{}
	resp, err := r.httpClient.Get(ctx, origin+"/robots.txt")
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("robots.txt unreachable", "origin", origin, "error", err)
	case resp.StatusCode == http.StatusOK:
		rules = parseRobotsTxt(string(resp.Body), r.agentToken)
	}

	r.mu.Lock()
	r.rules[origin] = rules
	r.mu.Unlock()

	return rules, nil
}

// IsAllowed checks if a URL may be fetched
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	rules, err := r.Rules(ctx, rawURL)
	if err != nil {
		return false, err
	}

	u, _ := url.Parse(rawURL)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	// Longest matching rule wins; Allow wins ties.
	longestDisallow := -1
	for _, pattern := range rules.Disallowed {
		if matchesPattern(path, pattern) && len(pattern) > longestDisallow {
			longestDisallow = len(pattern)
		}
	}
	if longestDisallow < 0 {
		return true, nil
	}
	for _, pattern := range rules.Allowed {
		if matchesPattern(path, pattern) && len(pattern) >= longestDisallow {
			return true, nil
		}
	}
	return false, nil
}

// parseRobotsTxt collects the rules of every group addressed to "*" or agentToken
func parseRobotsTxt(content, agentToken string) *RobotRules {
	rules := &RobotRules{}

	scanner := bufio.NewScanner(strings.NewReader(content))
	inGroup := false
	collectingAgents := false

	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		directive, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.TrimSpace(value)

		switch directive {
		case "user-agent":
			// consecutive User-agent lines share one group
			if !collectingAgents {
				inGroup = false
			}
			collectingAgents = true
			agent := strings.ToLower(value)
			if agent == "*" || (agent != "" && strings.Contains(agentToken, agent)) {
				inGroup = true
			}
			continue

		case "disallow":
			if inGroup && value != "" {
				rules.Disallowed = append(rules.Disallowed, value)
			}

		case "allow":
			if inGroup && value != "" {
				rules.Allowed = append(rules.Allowed, value)
			}

		case "crawl-delay":
			if inGroup {
				if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
					rules.CrawlDelay = time.Duration(secs * float64(time.Second))
				}
			}

		case "sitemap":
			rules.Sitemaps = append(rules.Sitemaps, value)
		}
		collectingAgents = false
	}

	return rules
}

// matchesPattern checks if a path matches a robots.txt pattern with * and $
func matchesPattern(path, pattern string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	if len(parts) == 1 {
		return !anchored || path == pattern
	}

	remaining := path[len(parts[0]):]
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		if anchored && i == len(parts)-1 {
			return strings.HasSuffix(remaining, parts[i])
		}
		idx := strings.Index(remaining, parts[i])
		if idx == -1 {
			return false
		}
		remaining = remaining[idx+len(parts[i]):]
	}

	return !anchored || remaining == "" || parts[len(parts)-1] == ""
}

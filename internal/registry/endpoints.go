package registry

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const AggregatorBaseURL = "https://aggregator-api.kyberswap.com"

var aggregatorSlugByChainID = map[int64]string{
	1:     "ethereum",
	10:    "optimism",
	25:    "cronos",
	56:    "bsc",
	137:   "polygon",
	250:   "fantom",
	42161: "arbitrum",
	43114: "avalanche",
}

// RouteEndpoint returns the route discovery endpoint for chainID. Chains without
// an endpoint have no route, which is not an error.
func RouteEndpoint(chainID int64) (string, bool) {
	slug, ok := aggregatorSlugByChainID[chainID]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s/%s/route", AggregatorBaseURL, slug), true
}

// IsAllowedRouteEndpoint rejects plain-http endpoints unless they point at a
// loopback host.
func IsAllowedRouteEndpoint(endpoint string) bool {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return false
	}
	host := strings.TrimSpace(parsed.Hostname())
	if host == "" {
		return false
	}
	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if isLoopbackHost(host) {
		return scheme == "http" || scheme == "https"
	}
	return scheme == "https"
}

func isLoopbackHost(host string) bool {
	h := strings.TrimSpace(strings.ToLower(host))
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

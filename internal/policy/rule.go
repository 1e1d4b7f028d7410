// Package policy evaluates device rules against candidate devices and
// picks the highest-priority available one per direction.
package policy

import (
	"log"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/pozitronik/audio-device-monitor-go/internal/config"
)

// regexCache compiles each Regex rule's pattern once and reuses it across
// evaluations, the way the teacher caches parsed assets rather than
// re-parsing per call.
var (
	regexCacheMu sync.Mutex
	regexCache   = map[string]*regexp2.Regexp{}
	regexWarned  = map[string]bool{}
)

// Matches evaluates a single rule against a device name. Matching is
// case-sensitive with no whitespace normalization. A disabled rule never
// matches.
func Matches(rule config.DeviceRule, deviceName string) bool {
	if !rule.Enabled {
		return false
	}

	switch rule.MatchType {
	case config.MatchExact:
		return deviceName == rule.Name
	case config.MatchContains:
		return strings.Contains(deviceName, rule.Name)
	case config.MatchStartsWith:
		return strings.HasPrefix(deviceName, rule.Name)
	case config.MatchEndsWith:
		return strings.HasSuffix(deviceName, rule.Name)
	case config.MatchRegex:
		return matchesRegex(rule, deviceName)
	default:
		return false
	}
}

func matchesRegex(rule config.DeviceRule, deviceName string) bool {
	re, ok := compiledRegex(rule.Name)
	if !ok {
		return strings.Contains(deviceName, rule.Name)
	}

	matched, err := re.MatchString(deviceName)
	if err != nil {
		return false
	}
	return matched
}

func compiledRegex(pattern string) (*regexp2.Regexp, bool) {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()

	if re, ok := regexCache[pattern]; ok {
		return re, re != nil
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		if !regexWarned[pattern] {
			log.Printf("policy: rule pattern %q failed to compile, falling back to contains: %v", pattern, err)
			regexWarned[pattern] = true
		}
		regexCache[pattern] = nil
		return nil, false
	}
	regexCache[pattern] = re
	return re, true
}

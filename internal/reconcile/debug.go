package reconcile

import (
	"fmt"
	"strings"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
	"github.com/pozitronik/audio-device-monitor-go/internal/policy"
)

// DescribePreferences renders a human-readable explanation of why each
// candidate device did or didn't win its direction: which rule matched,
// what score it produced, and what beat it. Supplemented from the
// project's prior preference-debugging module, surfaced by the CLI's
// check-config output.
func DescribePreferences(devices []audio.Device, outputRules, inputRules []config.DeviceRule) string {
	var b strings.Builder
	describeDirection(&b, "output", devices, outputRules, audio.Output)
	describeDirection(&b, "input", devices, inputRules, audio.Input)
	return b.String()
}

func describeDirection(b *strings.Builder, label string, devices []audio.Device, rules []config.DeviceRule, dir audio.Direction) {
	fmt.Fprintf(b, "%s candidates:\n", label)

	type scored struct {
		device audio.Device
		score  uint32
		rule   string
		match  bool
	}

	var results []scored
	for _, d := range devices {
		if !d.Direction.Accepts(dir) {
			continue
		}

		var best uint32
		var bestRule string
		matched := false
		for _, rule := range rules {
			if policy.Matches(rule, d.Name) {
				matched = true
				if rule.Weight > best || bestRule == "" {
					best = rule.Weight
					bestRule = rule.Name
				}
			}
		}
		results = append(results, scored{device: d, score: best, rule: bestRule, match: matched})
	}

	if len(results) == 0 {
		fmt.Fprintf(b, "  (no %s-compatible devices visible)\n", label)
		return
	}

	var winnerID string
	var winnerScore uint32
	first := true
	for _, r := range results {
		if !r.match {
			continue
		}
		if first || r.score > winnerScore {
			winnerScore = r.score
			winnerID = r.device.Identity()
			first = false
		}
	}

	for _, r := range results {
		switch {
		case !r.match:
			fmt.Fprintf(b, "  %-30s no rule matched\n", r.device.Name)
		case r.device.Identity() == winnerID:
			fmt.Fprintf(b, "  %-30s matched rule %q (weight %d) -> WINNER\n", r.device.Name, r.rule, r.score)
		default:
			fmt.Fprintf(b, "  %-30s matched rule %q (weight %d), outscored by %q\n", r.device.Name, r.rule, r.score, winnerID)
		}
	}
}

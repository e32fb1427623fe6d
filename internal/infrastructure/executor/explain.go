package executor

import (
	"regexp"
	"strings"
)

type failurePattern struct {
	re          *regexp.Regexp
	explanation string
	transient   bool
}

// Ordered; the first match explains the failure.
var failurePatterns = []failurePattern{
	{
		re:          regexp.MustCompile(`(?i)(HTTP error 404|does not provide attribute|attribute '[^']*' missing|undefined variable|flake .* does not provide|no match for)`),
		explanation: "That package name does not exist in nixpkgs. Search for it to find the exact attribute name.",
	},
	{
		re:          regexp.MustCompile(`(?i)(unable to download|couldn't resolve host|could not resolve host|connection (refused|reset|timed out)|network is unreachable|temporary failure in name resolution|ssl (connect )?error|HTTP error 5\d\d|502 Bad Gateway|503 Service)`),
		explanation: "The network request failed. Check your connection or try again in a moment.",
		transient:   true,
	},
	{
		re:          regexp.MustCompile(`(?i)(has an unfree license|unfree license|allowUnfree)`),
		explanation: "The package is unfree. Set nixpkgs.config.allowUnfree = true in your configuration, or export NIXPKGS_ALLOW_UNFREE=1 and add --impure.",
	},
	{
		re:          regexp.MustCompile(`(?i)(permission denied|operation not permitted|must be (run as )?root|are you root)`),
		explanation: "This needs administrator rights. Run it with sudo or as a user in the wheel group.",
	},
	{
		re:          regexp.MustCompile(`(?i)(no space left on device|disk quota exceeded)`),
		explanation: "The disk is full. Free space with \"clean up old generations\" and try again.",
	},
	{
		re:          regexp.MustCompile(`(?i)(conflicting packages|collision between|priority collision|already provides)`),
		explanation: "Another installed package provides the same files. Remove the conflicting package or change its priority.",
	},
	{
		re:          regexp.MustCompile(`(?i)(cannot connect to daemon|nix-daemon.*(not running|refused)|cannot open connection to remote store)`),
		explanation: "The Nix daemon is not reachable. Start it with: sudo systemctl start nix-daemon",
	},
	{
		re:          regexp.MustCompile(`(?i)(executable file not found|no such file or directory)`),
		explanation: "The command is not available. Make sure Nix is installed and on your PATH.",
	},
	{
		re:          regexp.MustCompile(`(?i)(unit .* not (found|loaded)|could not be found)`),
		explanation: "That service does not exist on this system. Enable it in configuration.nix first.",
	},
	{
		re:          regexp.MustCompile(`(?i)(error: .*syntax error|unexpected .*, expecting)`),
		explanation: "The configuration has a syntax error. Open it with \"edit the configuration\" and fix the reported line.",
	},
}

// ExplainFailure turns command output into a plain-language explanation.
func ExplainFailure(output, errText string) string {
	text := output + "\n" + errText
	for _, p := range failurePatterns {
		if p.re.MatchString(text) {
			return p.explanation
		}
	}
	if line := lastErrorLine(output); line != "" {
		return "The command failed: " + line
	}
	return "The command failed without an error message. Run with --verbose for details."
}

// IsTransient reports whether a failure is worth retrying.
func IsTransient(output string) bool {
	for _, p := range failurePatterns {
		if p.re.MatchString(output) {
			return p.transient
		}
	}
	return false
}

func lastErrorLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(strings.ToLower(line), "error") {
			return line
		}
	}
	if len(lines) > 0 {
		return strings.TrimSpace(lines[len(lines)-1])
	}
	return ""
}

package parser

import (
	"regexp"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/knowledge"
)

// RulesVersion changes whenever the rule table below changes.
const RulesVersion = 4

// Rule is one tagged phrasing. Rules are tried in table order and the first
// full match wins.
type Rule struct {
	ID          string
	Action      domain.Action
	Operation   string
	Pattern     *regexp.Regexp
	Specificity float64
	TargetKind  domain.TargetKind
	Modifiers   map[string]string
	Keywords    []string // feed typo correction and partial-match suggestions
	Example     string
}

const (
	targetGroup = `(?P<target>.+?)`
	methodGroup = `(?:\s+(?P<method>system[- ]?wide|systemwide|globally|for everyone|for all users|declaratively|just for me|for my user|for this user|temporarily|for now|in a shell|without installing))?`
	serviceOps  = `start|stop|restart|reload|enable|disable`
)

func rule(id string, action domain.Action, op string, pattern string, specificity float64, kind domain.TargetKind, example string, keywords ...string) Rule {
	return Rule{
		ID:          id,
		Action:      action,
		Operation:   op,
		Pattern:     regexp.MustCompile(pattern),
		Specificity: specificity,
		TargetKind:  kind,
		Keywords:    keywords,
		Example:     example,
	}
}

func (r Rule) with(key, value string) Rule {
	mods := map[string]string{}
	for k, v := range r.Modifiers {
		mods[k] = v
	}
	mods[key] = value
	r.Modifiers = mods
	return r
}

// DefaultRules returns the ordered rule table. Specific families come
// before generic ones so "check for updates" never reaches service status
// and "delete /etc" never reaches package removal.
func DefaultRules() []Rule {
	none := domain.TargetNone
	return []Rule{
		rule("help", domain.ActionHelp, knowledge.OpHelp,
			`^(?:help|what can you do|what do you do|how does this work|how do i use (?:this|you)|usage)$`,
			1.0, none, "help", "help"),

		rule("update-system", domain.ActionUpdate, knowledge.OpUpdate,
			`^(?:update|upgrade)\s+(?:my\s+|the\s+)?(?:whole\s+|entire\s+)?(?:system|nixos|computer|machine|os|everything)$`,
			1.0, none, "update my system", "update", "upgrade", "system").with(domain.ModMethod, string(domain.MethodSystem)),
		rule("update-user", domain.ActionUpdate, knowledge.OpUpdate,
			`^(?:update|upgrade)\s+(?:all\s+)?(?:my\s+|the\s+)?(?:installed\s+|user\s+)?(?:packages|profile|apps|programs|software)$`,
			1.0, none, "update my packages", "update", "upgrade", "packages").with(domain.ModMethod, string(domain.MethodUser)),
		rule("update-check", domain.ActionUpdate, knowledge.OpUpdate,
			`^(?:check for updates|apply (?:the\s+)?updates|install (?:the\s+)?updates|system update|get (?:the\s+)?latest updates)$`,
			0.9, none, "check for updates", "updates").with(domain.ModMethod, string(domain.MethodSystem)),
		rule("update-bare", domain.ActionUpdate, knowledge.OpUpdate,
			`^(?:update|upgrade)$`,
			0.7, none, "update", "update", "upgrade"),

		rule("list-generations", domain.ActionList, knowledge.OpListGenerations,
			`^(?:list|show|what are)\s+(?:all\s+)?(?:my\s+|the\s+)?(?:system\s+)?(?:generations|snapshots)$`,
			1.0, none, "list generations", "list", "show", "generations"),
		rule("list-installed", domain.ActionList, knowledge.OpList,
			`^(?:list|show)\s+(?:all\s+)?(?:my\s+|the\s+)?(?:installed\s+)?(?:packages|programs|apps|software)(?:\s+installed)?$`,
			1.0, none, "list installed packages", "list", "show", "installed", "packages"),
		rule("list-question", domain.ActionList, knowledge.OpList,
			`^what(?:'s|\s+is|\s+(?:packages|programs|apps|software)\s+(?:are|do i have))\s+installed$`,
			0.95, none, "what's installed", "installed"),

		rule("switch-generation", domain.ActionRollback, knowledge.OpSwitchGeneration,
			`^(?:roll\s*back|revert|undo|switch|go back|return)\s+to\s+generation\s+(?P<generation>\d+)$`,
			1.0, none, "roll back to generation 42", "rollback", "switch", "generation"),
		rule("rollback", domain.ActionRollback, knowledge.OpRollback,
			`^(?:roll\s*back|revert|undo)(?:\s+(?:the\s+|my\s+)?(?:system|last\s+(?:change|update|upgrade|rebuild)|changes|update|upgrade))?$`,
			1.0, none, "roll back", "rollback", "revert", "undo"),
		rule("rollback-previous", domain.ActionRollback, knowledge.OpRollback,
			`^go back(?:\s+to\s+(?:the\s+)?(?:previous|last)\s+(?:version|generation|configuration))?$`,
			0.8, none, "go back to the previous generation", "previous"),

		rule("clean-older", domain.ActionClean, knowledge.OpCollectGarbageOlder,
			`^(?:clean(?:\s*up)?|collect garbage|garbage collect|gc|delete|remove)\s+(?:.*\s)?older than\s+(?P<older>\d+)\s*(?:d|days?)$`,
			1.0, none, "clean up generations older than 30 days", "clean", "older"),
		rule("clean", domain.ActionClean, knowledge.OpCollectGarbage,
			`^(?:clean(?:\s*up)?|free(?:\s+up)?|tidy(?:\s+up)?)(?:\s+(?:some|my|the|up|disk|space|storage|system|store|nix|everything|all|old|generations|garbage))*$`,
			1.0, none, "clean up disk space", "clean", "free", "space"),
		rule("collect-garbage", domain.ActionClean, knowledge.OpCollectGarbage,
			`^(?:collect garbage|garbage collect(?:ion)?|gc|run (?:the\s+)?garbage collector|(?:delete|remove) old generations)$`,
			1.0, none, "collect garbage", "garbage", "collect"),

		rule("rebuild", domain.ActionRebuild, knowledge.OpRebuild,
			`^(?:rebuild|apply)(?:\s+(?:the\s+|my\s+)?(?:system|config|configuration|changes|nixos))?(?:\s+(?:and\s+)?switch)?$`,
			1.0, none, "rebuild the system", "rebuild", "apply"),

		rule("edit-config", domain.ActionConfig, knowledge.OpEditConfig,
			`^(?:edit|open|change|modify)\s+(?:the\s+|my\s+)?(?:system\s+|nixos\s+)?(?:config|configuration|configuration\.nix)(?:\s+file)?$`,
			1.0, none, "edit the configuration", "edit", "config", "configuration"),
		rule("show-config", domain.ActionConfig, knowledge.OpShowConfig,
			`^(?:show|view|print|display|cat|read)\s+(?:me\s+)?(?:the\s+|my\s+)?(?:system\s+|nixos\s+)?(?:config|configuration|configuration\.nix)(?:\s+file)?$`,
			1.0, none, "show the configuration", "show", "config", "configuration"),

		rule("service-control", domain.ActionService, knowledge.OpServiceControl,
			`^(?P<op>`+serviceOps+`)\s+(?:the\s+)?(?P<target>\S+?)(?:\s+(?:service|daemon))?$`,
			1.0, domain.TargetService, "restart nginx", "start", "stop", "restart", "enable", "disable", "service"),
		rule("service-status", domain.ActionService, knowledge.OpServiceStatus,
			`^(?:(?:show\s+)?status\s+(?:of\s+)?|check\s+(?:on\s+)?|is\s+)(?:the\s+)?(?P<target>\S+?)(?:\s+(?:service|daemon))?(?:\s+(?:status|running|up|active))?$`,
			0.9, domain.TargetService, "is sshd running", "status", "running", "check"),
		rule("service-status-suffix", domain.ActionService, knowledge.OpServiceStatus,
			`^(?:the\s+)?(?P<target>\S+?)\s+(?:service\s+)?status$`,
			0.9, domain.TargetService, "nginx status", "status"),

		rule("remove-path", domain.ActionRemove, knowledge.OpRemovePath,
			`^(?:remove|delete|rm|erase|wipe|destroy)\s+(?:the\s+)?(?:folder\s+|directory\s+|file\s+)?(?P<target>[/~]\S*)$`,
			1.0, domain.TargetPath, "delete ~/old-downloads", "delete", "remove"),
		rule("remove", domain.ActionRemove, knowledge.OpRemove,
			`^(?:remove|uninstall|delete|erase|get rid of)\s+`+targetGroup+methodGroup+`$`,
			1.0, domain.TargetPackage, "remove firefox", "remove", "uninstall", "delete"),

		rule("search", domain.ActionSearch, knowledge.OpSearch,
			`^(?:search|search for|find|look for|look up|lookup|is there)\s+(?:a\s+|an\s+|the\s+)?(?:package\s+)?(?:for\s+|called\s+|named\s+)?`+targetGroup+`(?:\s+packages?)?$`,
			1.0, domain.TargetTerm, "search for python", "search", "find", "look"),

		rule("install", domain.ActionInstall, knowledge.OpInstall,
			`^(?:install|add|setup|set up)\s+`+targetGroup+methodGroup+`$`,
			1.0, domain.TargetPackage, "install firefox", "install", "add"),
		rule("install-need", domain.ActionInstall, knowledge.OpInstall,
			`^(?:i\s+|i)?(?:need|want|would like|'d like)\s+`+targetGroup+methodGroup+`$`,
			1.0, domain.TargetPackage, "i need firefox", "need", "want"),
		rule("install-get", domain.ActionInstall, knowledge.OpInstall,
			`^(?:get|download|grab)\s+(?:me\s+)?`+targetGroup+methodGroup+`$`,
			0.9, domain.TargetPackage, "get firefox", "get", "download"),
		rule("install-try", domain.ActionInstall, knowledge.OpInstall,
			`^(?:try|try out|test drive)\s+`+targetGroup+`$`,
			0.85, domain.TargetPackage, "try htop", "try").with(domain.ModMethod, string(domain.MethodEphemeral)),
	}
}

// methodFromPhrase maps a trailing scope phrase to an install method.
func methodFromPhrase(phrase string) (domain.Method, bool) {
	switch phrase {
	case "":
		return "", false
	case "system-wide", "system wide", "systemwide", "globally", "for everyone", "for all users", "declaratively":
		return domain.MethodSystem, true
	case "just for me", "for my user", "for this user":
		return domain.MethodUser, true
	case "temporarily", "for now", "in a shell", "without installing", "just try it":
		return domain.MethodEphemeral, true
	}
	return domain.ParseMethod(phrase)
}

// vocabulary is every word the rule table knows, used for typo correction.
func vocabulary(rules []Rule) map[string]bool {
	vocab := map[string]bool{}
	for _, r := range rules {
		for _, k := range r.Keywords {
			vocab[k] = true
		}
	}
	for _, w := range []string{
		"my", "the", "a", "an", "all", "to", "of", "for", "up", "me", "it", "i", "is", "and",
		"uninstall", "packages", "package", "program", "programs", "software", "everything",
		"generation", "generations", "previous", "version", "disk", "space", "older", "than",
		"days", "garbage", "config", "configuration", "service", "running", "status",
		"upgrade", "updates", "system", "installed", "rollback", "revert", "clean",
		"collect", "search", "find", "remove", "delete", "install", "update", "list",
		"restart", "start", "stop", "enable", "disable", "rebuild", "edit", "show",
		"wide", "globally", "temporarily", "instead", "actually", "meant",
	} {
		vocab[w] = true
	}
	return vocab
}

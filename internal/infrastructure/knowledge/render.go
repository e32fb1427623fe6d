package knowledge

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/doeshing/nixsay/internal/domain"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)
	nameRe        = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+@-]*$`)
	pathRe        = regexp.MustCompile(`^(~|/)[A-Za-z0-9._+/-]*$`)
	generationRe  = regexp.MustCompile(`^[0-9]{1,6}$`)
	olderThanRe   = regexp.MustCompile(`^[0-9]{1,4}d$`)
)

var serviceOps = map[string]bool{
	"start": true, "stop": true, "restart": true, "reload": true, "enable": true, "disable": true,
}

// ValidateTarget is the injection boundary: targets are whitelisted by kind
// and anything with control characters or shell metacharacters is rejected.
func (s *Store) ValidateTarget(kind domain.TargetKind, value string) error {
	switch kind {
	case domain.TargetPath:
		return validatePath(value)
	case domain.TargetPackage, domain.TargetService, domain.TargetTerm:
		return validateName(value)
	case domain.TargetNone:
		if value != "" {
			return rejected(value, "this operation takes no target")
		}
		return nil
	default:
		return rejected(value, fmt.Sprintf("unknown target kind %q", kind))
	}
}

func validateName(value string) error {
	if value == "" {
		return rejected(value, "empty name")
	}
	if bad, ok := firstForbidden(value); ok {
		return rejected(value, fmt.Sprintf("contains %q", bad))
	}
	if !nameRe.MatchString(value) {
		return rejected(value, "names may only contain letters, digits and . _ + - @")
	}
	return nil
}

func validatePath(value string) error {
	if bad, ok := firstForbidden(value); ok {
		return rejected(value, fmt.Sprintf("contains %q", bad))
	}
	if !pathRe.MatchString(value) {
		return rejected(value, "paths must be absolute or start with ~ and use plain characters")
	}
	for _, part := range strings.Split(value, "/") {
		if part == ".." {
			return rejected(value, "paths may not contain ..")
		}
	}
	return nil
}

// firstForbidden reports the first control character, whitespace or shell
// metacharacter in value.
func firstForbidden(value string) (string, bool) {
	for _, r := range value {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return string(r), true
		}
		if strings.ContainsRune(";|&$`<>(){}[]*?!\\'\"#", r) {
			return string(r), true
		}
	}
	return "", false
}

func rejected(value, reason string) *domain.Error {
	return domain.NewError(domain.KindRejectedInput,
		fmt.Sprintf("the target %q", value),
		reason,
		"Use a plain package or service name, e.g. \"install firefox\".")
}

// Render substitutes the intent into its operation template. Every parameter
// is validated again here, so a command is never built from unchecked text.
func (s *Store) Render(intent domain.Intent, preferred domain.Method) (domain.Command, error) {
	op, ok := s.Operation(intent.Operation)
	if !ok {
		return domain.Command{}, fmt.Errorf("unknown operation %q", intent.Operation)
	}
	if len(op.Templates) == 0 {
		return domain.Command{}, fmt.Errorf("operation %q has no command", op.Name)
	}

	method := chooseMethod(op, intent.Modifier(domain.ModMethod), preferred)
	template := op.Templates[method]

	params := map[string]string{}
	for k, v := range intent.Modifiers {
		params[k] = v
	}
	target := ""
	switch op.TargetKind {
	case domain.TargetPackage, domain.TargetService:
		entry, err := s.canonicalEntry(op.TargetKind, intent.Target)
		if err != nil {
			return domain.Command{}, err
		}
		target = entry.Canonical
		if op.Action == domain.ActionInstall {
			if custom, ok := entry.Templates[method]; ok && custom != "" {
				template = custom
			}
		}
	case domain.TargetTerm:
		if err := validateName(intent.Target); err != nil {
			return domain.Command{}, err
		}
		target = intent.Target
	case domain.TargetPath:
		if err := validatePath(intent.Target); err != nil {
			return domain.Command{}, err
		}
		// Rules match on the cleaned form, so //etc and /./etc classify as /etc.
		target = path.Clean(s.expandHome(intent.Target))
	}
	if target != "" {
		params["target"] = target
	}

	text, err := renderTemplate(template, params)
	if err != nil {
		return domain.Command{}, err
	}
	explanation := op.Explanation
	if custom, ok := op.MethodExplanations[method]; ok {
		explanation = custom
	}
	if explanation != "" {
		params["method"] = string(method)
		explanation, _ = renderTemplate(explanation, params)
	}

	return domain.Command{
		Text:        text,
		Argv:        strings.Fields(text),
		Operation:   op.Name,
		Target:      target,
		Method:      method,
		Class:       op.Class,
		Idempotent:  op.Idempotent,
		Interactive: op.Interactive || op.InteractiveMethods[method],
		Explanation: explanation,
	}, nil
}

// canonicalEntry requires an exact canonical name; aliases never reach a
// template.
func (s *Store) canonicalEntry(kind domain.TargetKind, name string) (domain.KnowledgeEntry, error) {
	if err := validateName(name); err != nil {
		return domain.KnowledgeEntry{}, err
	}
	entryKind := domain.KindPackage
	if kind == domain.TargetService {
		entryKind = domain.KindService
	}
	s.mu.RLock()
	entry, ok := s.entries[entryKind][normalizeName(name)]
	s.mu.RUnlock()
	if !ok {
		return domain.KnowledgeEntry{}, domain.NewError(domain.KindUnknownTarget,
			fmt.Sprintf("a %s named %q", entryKind, name),
			fmt.Sprintf("%q is not a canonical %s name", name, entryKind))
	}
	return *entry, nil
}

func chooseMethod(op domain.Operation, requested string, preferred domain.Method) domain.Method {
	if m, ok := domain.ParseMethod(requested); ok {
		if _, has := op.Templates[m]; has {
			return m
		}
	}
	if _, has := op.Templates[preferred]; has {
		return preferred
	}
	return op.DefaultMethod
}

func renderTemplate(template string, params map[string]string) (string, error) {
	var renderErr error
	out := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := params[name]
		if !ok || value == "" {
			if renderErr == nil {
				renderErr = fmt.Errorf("template parameter %q missing", name)
			}
			return match
		}
		if err := validateParam(name, value); err != nil {
			if renderErr == nil {
				renderErr = err
			}
			return match
		}
		return value
	})
	if renderErr != nil {
		return "", renderErr
	}
	if strings.Contains(out, "{{") {
		return "", fmt.Errorf("template %q has a malformed placeholder", template)
	}
	return out, nil
}

func validateParam(name, value string) error {
	switch name {
	case "target":
		if strings.HasPrefix(value, "/") || strings.HasPrefix(value, "~") {
			return validatePath(value)
		}
		return validateName(value)
	case "generation":
		if !generationRe.MatchString(value) {
			return rejected(value, "generation must be a number")
		}
	case "older_than":
		if !olderThanRe.MatchString(value) {
			return rejected(value, "age must look like 30d")
		}
	case "op":
		if !serviceOps[value] {
			return rejected(value, "unsupported service action")
		}
	case "method":
		if _, ok := domain.ParseMethod(value); !ok {
			return rejected(value, "unknown method")
		}
	default:
		return fmt.Errorf("unknown template parameter %q", name)
	}
	return nil
}

func (s *Store) expandHome(p string) string {
	if s.homeDir == "" {
		return p
	}
	if p == "~" {
		return s.homeDir
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(s.homeDir, p[2:])
	}
	return p
}

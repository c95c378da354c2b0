package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/model"
)

// placeholderPattern matches {{name}} and {{name:args}} tokens inside
// template strings.
var placeholderPattern = regexp.MustCompile(`\{\{(\w+)(?::([^}]+))?\}\}`)

// defaultTemplate is used when the custom stream is enabled without a
// template of its own.
const defaultTemplate = `{
	"id": "{{uuid}}",
	"timestamp": "{{timestamp}}",
	"user": {
		"name": "{{word}}",
		"email": "{{email}}",
		"active": "{{bool}}"
	},
	"score": "{{int:0,100}}",
	"source_ip": "{{ip}}"
}`

// CustomProducer generates documents from a JSON template with
// {{placeholder}} substitution. The template is validated when the
// producer is constructed; generation itself cannot fail.
type CustomProducer struct {
	template map[string]any
	rnd      *rand.Rand
}

// NewCustomProducer parses and validates the template from the
// configuration. An unparsable template or an unknown placeholder is a
// construction-time error.
func NewCustomProducer(config configuration.CustomConfig, rnd *rand.Rand) (*CustomProducer, error) {
	raw := config.Template
	if raw == "" && config.TemplateFile != "" {
		content, err := os.ReadFile(config.TemplateFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading custom template file")
		}
		raw = string(content)
	}
	if raw == "" {
		raw = defaultTemplate
	}

	var template map[string]any
	if err := json.Unmarshal([]byte(raw), &template); err != nil {
		return nil, errors.Wrap(err, "parsing custom template")
	}
	if err := validateTemplateNode(template); err != nil {
		return nil, err
	}

	return &CustomProducer{template: template, rnd: rnd}, nil
}

func (p *CustomProducer) GenerateOne() model.Document {
	return model.Document(p.renderMap(p.template))
}

func (p *CustomProducer) GenerateBatch(n int) []model.Document {
	return generateBatch(p, n)
}

func (p *CustomProducer) renderMap(node map[string]any) map[string]any {
	rendered := make(map[string]any, len(node))
	for key, value := range node {
		rendered[key] = p.renderValue(value)
	}
	return rendered
}

func (p *CustomProducer) renderValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return p.renderMap(v)
	case []any:
		rendered := make([]any, len(v))
		for i, item := range v {
			rendered[i] = p.renderValue(item)
		}
		return rendered
	case string:
		return p.renderString(v)
	default:
		return v
	}
}

func (p *CustomProducer) renderString(s string) any {
	// A string that is exactly one placeholder keeps the resolved type;
	// placeholders embedded in a longer string are stringified in place.
	if match := placeholderPattern.FindStringSubmatch(s); match != nil && match[0] == s {
		return p.resolve(match[1], match[2])
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		match := placeholderPattern.FindStringSubmatch(token)
		return fmt.Sprintf("%v", p.resolve(match[1], match[2]))
	})
}

func (p *CustomProducer) resolve(name, args string) any {
	switch name {
	case "uuid":
		return uuid.NewString()
	case "word":
		return choice(p.rnd, loggerWords)
	case "sentence":
		words := make([]string, 4+p.rnd.Intn(5))
		for i := range words {
			words[i] = choice(p.rnd, loggerWords)
		}
		return capitalize(strings.Join(words, " ")) + "."
	case "email":
		return fmt.Sprintf("%s.%s@example.com", choice(p.rnd, loggerWords), shortID(p.rnd))
	case "ip":
		return randomIP(p.rnd)
	case "hostname":
		return fmt.Sprintf("%s-%02d.example.com", choice(p.rnd, loggerWords), 1+p.rnd.Intn(40))
	case "int":
		min, max := intRange(args)
		return min + p.rnd.Intn(max-min+1)
	case "float":
		min, max := floatRange(args)
		return min + p.rnd.Float64()*(max-min)
	case "bool":
		return p.rnd.Intn(2) == 0
	case "timestamp":
		return time.Now().UTC().Format(time.RFC3339Nano)
	case "choice":
		return choice(p.rnd, strings.Split(args, "|"))
	default:
		// Unreachable: validated at construction.
		return ""
	}
}

func validateTemplateNode(node any) error {
	switch v := node.(type) {
	case map[string]any:
		for _, value := range v {
			if err := validateTemplateNode(value); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range v {
			if err := validateTemplateNode(item); err != nil {
				return err
			}
		}
	case string:
		for _, match := range placeholderPattern.FindAllStringSubmatch(v, -1) {
			if err := validatePlaceholder(match[1], match[2]); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePlaceholder(name, args string) error {
	switch name {
	case "uuid", "word", "sentence", "email", "ip", "hostname", "bool", "timestamp":
		return nil
	case "int":
		min, max := intRange(args)
		if min > max {
			return fmt.Errorf("placeholder int has empty range %q", args)
		}
		if args != "" && !validIntArgs(args) {
			return fmt.Errorf("placeholder int has malformed arguments %q", args)
		}
		return nil
	case "float":
		min, max := floatRange(args)
		if min > max {
			return fmt.Errorf("placeholder float has empty range %q", args)
		}
		if args != "" && !validFloatArgs(args) {
			return fmt.Errorf("placeholder float has malformed arguments %q", args)
		}
		return nil
	case "choice":
		if args == "" {
			return fmt.Errorf("placeholder choice requires arguments, e.g. {{choice:a|b|c}}")
		}
		return nil
	default:
		return fmt.Errorf("unknown placeholder %q", name)
	}
}

func validIntArgs(args string) bool {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(strings.TrimSpace(part)); err != nil {
			return false
		}
	}
	return true
}

func validFloatArgs(args string) bool {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if _, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err != nil {
			return false
		}
	}
	return true
}

func intRange(args string) (int, int) {
	min, max := 0, 100
	parts := strings.Split(args, ",")
	if len(parts) == 2 {
		if v, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			min = v
		}
		if v, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			max = v
		}
	}
	return min, max
}

func floatRange(args string) (float64, float64) {
	min, max := 0.0, 1.0
	parts := strings.Split(args, ",")
	if len(parts) == 2 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil {
			min = v
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			max = v
		}
	}
	return min, max
}

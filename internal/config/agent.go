package config

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Model providers understood by the model router.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

const (
	DefaultModel           = ProviderAnthropic + "/claude-haiku-4-5-20251001"
	DefaultBusinessContext = "Your company develops AI and automation solutions."
	DefaultReportLanguage  = "en"
)

// Agent is the per-run configuration passed to every pipeline node. It is
// resolved once at pipeline entry and treated as immutable afterwards.
type Agent struct {
	GraderModel     string `yaml:"grader_model" json:"grader_model" mapstructure:"grader_model"`
	ReportModel     string `yaml:"report_model" json:"report_model" mapstructure:"report_model"`
	BusinessContext string `yaml:"business_context" json:"business_context" mapstructure:"business_context"`
	ReportLanguage  string `yaml:"report_language" json:"report_language" mapstructure:"report_language"`
}

// agentKeys are the override keys ResolveAgent accepts.
var agentKeys = []string{"grader_model", "report_model", "business_context", "report_language"}

// DefaultAgent returns the built-in run configuration.
func DefaultAgent() Agent {
	return Agent{
		GraderModel:     DefaultModel,
		ReportModel:     DefaultModel,
		BusinessContext: DefaultBusinessContext,
		ReportLanguage:  DefaultReportLanguage,
	}
}

// ResolveAgent merges caller overrides onto defaults. Unknown keys are
// dropped; empty fields in defaults fall back to the built-in values.
func ResolveAgent(defaults Agent, overrides map[string]any) (Agent, error) {
	base := DefaultAgent()

	v := viper.New()
	v.SetDefault("grader_model", firstNonEmpty(defaults.GraderModel, base.GraderModel))
	v.SetDefault("report_model", firstNonEmpty(defaults.ReportModel, base.ReportModel))
	v.SetDefault("business_context", firstNonEmpty(defaults.BusinessContext, base.BusinessContext))
	v.SetDefault("report_language", firstNonEmpty(defaults.ReportLanguage, base.ReportLanguage))

	var dropped []string
	for k, val := range overrides {
		key := strings.ToLower(strings.TrimSpace(k))
		if !isAgentKey(key) {
			dropped = append(dropped, k)
			continue
		}
		v.Set(key, val)
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		zap.L().Debug("config: ignoring unknown run options", zap.Strings("keys", dropped))
	}

	var out Agent
	if err := v.Unmarshal(&out); err != nil {
		return Agent{}, eris.Wrap(err, "config: resolve run options")
	}
	if err := out.Validate(); err != nil {
		return Agent{}, err
	}
	return out, nil
}

// Validate checks that every field is usable.
func (a Agent) Validate() error {
	if strings.TrimSpace(a.GraderModel) == "" {
		return eris.New("config: grader_model is required")
	}
	if strings.TrimSpace(a.ReportModel) == "" {
		return eris.New("config: report_model is required")
	}
	if _, err := language.Parse(a.ReportLanguage); err != nil {
		return eris.Wrapf(err, "config: report_language %q", a.ReportLanguage)
	}
	return nil
}

// LanguageName returns the English display name of ReportLanguage, e.g.
// "English" for "en" or "German" for "de". Unparseable tags yield "English".
func (a Agent) LanguageName() string {
	tag, err := language.Parse(a.ReportLanguage)
	if err != nil {
		return "English"
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return "English"
	}
	return name
}

// SplitModelID splits "provider/model" into its parts. Identifiers without a
// slash are treated as Anthropic models; everything after the first slash is
// the model name, so "openrouter/openai/gpt-4o-mini" yields
// ("openrouter", "openai/gpt-4o-mini").
func SplitModelID(id string) (provider, model string) {
	id = strings.TrimSpace(id)
	if idx := strings.Index(id, "/"); idx > 0 {
		return strings.ToLower(id[:idx]), id[idx+1:]
	}
	return ProviderAnthropic, id
}

func isAgentKey(k string) bool {
	for _, known := range agentKeys {
		if k == known {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package model

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrInvalidURL is returned when a run is started with a URL that is not an
// absolute http(s) URL.
var ErrInvalidURL = eris.New("invalid url")

// PipelineState is the record threaded through a single run. It is owned by
// the orchestrator and only changed through Apply.
type PipelineState struct {
	RunID         string          `json:"run_id" yaml:"run_id"`
	URL           string          `json:"url" yaml:"url"`
	Links         []string        `json:"links" yaml:"links"`
	PageContents  []ContentRecord `json:"page_contents" yaml:"page_contents"`
	RelevantLinks []string        `json:"relevant_links" yaml:"relevant_links"`
	Report        *string         `json:"report,omitempty" yaml:"report,omitempty"`
	Usage         TokenUsage      `json:"usage" yaml:"usage"`
}

// NewPipelineState validates rawURL and returns a fresh state for it.
func NewPipelineState(rawURL string) (*PipelineState, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	return &PipelineState{
		RunID:         uuid.NewString(),
		URL:           rawURL,
		Links:         []string{},
		PageContents:  []ContentRecord{},
		RelevantLinks: []string{},
	}, nil
}

// ValidateURL checks that rawURL is an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return eris.Wrap(ErrInvalidURL, "url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrapf(ErrInvalidURL, "parse %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Wrapf(ErrInvalidURL, "%q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return eris.Wrapf(ErrInvalidURL, "%q: missing host", rawURL)
	}
	return nil
}

// HasReport reports whether a report has been generated.
func (s *PipelineState) HasReport() bool {
	return s.Report != nil
}

// Delta is a partial state update returned by a pipeline node.
type Delta struct {
	Links         []string
	PageContents  []ContentRecord
	RelevantLinks []string
	Report        *string
	Usage         TokenUsage
}

// IsEmpty reports whether applying d would leave the state's content fields
// unchanged.
func (d Delta) IsEmpty() bool {
	return len(d.Links) == 0 && len(d.PageContents) == 0 &&
		len(d.RelevantLinks) == 0 && d.Report == nil
}

// Apply merges d into s: slice fields are appended, the report is replaced
// when set, and usage counters are summed.
func (s *PipelineState) Apply(d Delta) {
	s.Links = append(s.Links, d.Links...)
	s.PageContents = append(s.PageContents, d.PageContents...)
	s.RelevantLinks = append(s.RelevantLinks, d.RelevantLinks...)
	if d.Report != nil {
		r := *d.Report
		s.Report = &r
	}
	s.Usage.Add(d.Usage)
}

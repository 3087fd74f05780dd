package model

import "net/url"

// ContentRecord is the metadata extracted from a single fetched page.
// When Error is set the fetch failed and Title, Description and Text are
// empty; the record is still a valid result.
type ContentRecord struct {
	URL         string   `json:"url" yaml:"url"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Text        string   `json:"text,omitempty" yaml:"text,omitempty"`
	Domain      string   `json:"domain" yaml:"domain"`
	Links       []string `json:"links,omitempty" yaml:"links,omitempty"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the record carries a fetch error.
func (r ContentRecord) Failed() bool {
	return r.Error != ""
}

// NewErrorRecord builds the record returned when a fetch fails. The domain is
// still derived from the URL when it parses.
func NewErrorRecord(rawURL string, err error) ContentRecord {
	msg := "unknown fetch error"
	if err != nil {
		msg = err.Error()
	}
	return ContentRecord{
		URL:    rawURL,
		Domain: DomainOf(rawURL),
		Error:  msg,
	}
}

// DomainOf returns the host (with port, if any) of rawURL, or "" when the
// URL cannot be parsed.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

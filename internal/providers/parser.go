package providers

import "strings"

// ProviderRef is one parsed entry of the provider list. The optional alias
// after the colon selects a key (or model, for ollama) by env var suffix.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits "openai:key1|groq|mock" into refs, defaulting to
// the mock provider when the list is empty.
func ParseProviderList(raw string) []ProviderRef {
	var refs []ProviderRef
	for _, entry := range strings.Split(raw, "|") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, alias, _ := strings.Cut(entry, ":")
		refs = append(refs, ProviderRef{
			Raw:      entry,
			Name:     strings.TrimSpace(name),
			KeyAlias: strings.TrimSpace(alias),
		})
	}
	if len(refs) == 0 {
		refs = []ProviderRef{{Raw: "mock", Name: "mock"}}
	}
	return refs
}

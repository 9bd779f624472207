package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed catalog_schema.json
var catalogSchema []byte

// Template categories in the external catalog.
const (
	categoryResearchNoteBox = "research note box"
	categoryProjectBox      = "project box"
	categoryNavBox          = "navigation box"
	categorySticker         = "sticker"
)

type catalogEntry struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
}

type catalogDocument struct {
	Templates []catalogEntry `json:"templates"`
}

type templateCatalog struct {
	byName map[string]catalogEntry
}

// LoadTemplates validates and merges the externally fetched template
// catalog. It may be called at most once, before the RuleSet is shared;
// a failure leaves the catalog-derived checks answering "not found" and
// is reported to the caller for logging only, never to fail a parse.
func (rs *RuleSet) LoadTemplates(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(catalogSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("template catalog is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return fmt.Errorf("template catalog failed schema validation: %s", strings.Join(reasons, "; "))
	}

	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode template catalog: %w", err)
	}

	catalog := &templateCatalog{byName: make(map[string]catalogEntry, len(doc.Templates))}
	for _, entry := range doc.Templates {
		catalog.byName[strings.ToLower(strings.TrimSpace(entry.Name))] = entry
	}
	rs.catalog = catalog
	return nil
}

// LoadTemplatesFromFile reads a catalog JSON file and merges it.
func (rs *RuleSet) LoadTemplatesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template catalog %s: %w", path, err)
	}
	return rs.LoadTemplates(data)
}

func (rs *RuleSet) lookupTemplate(name string) (catalogEntry, bool) {
	if rs.catalog == nil {
		return catalogEntry{}, false
	}
	entry, ok := rs.catalog.byName[strings.ToLower(strings.TrimSpace(name))]
	return entry, ok
}

// IsResearchNotesBox reports whether templateName is a known research
// note box. Unknown names (including every name before a successful
// LoadTemplates) answer false.
func (rs *RuleSet) IsResearchNotesBox(templateName string) bool {
	entry, ok := rs.lookupTemplate(templateName)
	return ok && entry.Type == categoryResearchNoteBox
}

// IsApprovedResearchNotesBox reports whether templateName is a research
// note box whose catalog entry carries approved status.
func (rs *RuleSet) IsApprovedResearchNotesBox(templateName string) bool {
	entry, ok := rs.lookupTemplate(templateName)
	return ok && entry.Type == categoryResearchNoteBox && strings.EqualFold(entry.Status, "approved")
}

// IsProjectBox reports whether templateName is a known project box.
func (rs *RuleSet) IsProjectBox(templateName string) bool {
	entry, ok := rs.lookupTemplate(templateName)
	return ok && entry.Type == categoryProjectBox
}

// IsNavBox reports whether templateName is a known navigation box.
func (rs *RuleSet) IsNavBox(templateName string) bool {
	entry, ok := rs.lookupTemplate(templateName)
	return ok && entry.Type == categoryNavBox
}

// IsSticker reports whether templateName is a known sticker.
func (rs *RuleSet) IsSticker(templateName string) bool {
	entry, ok := rs.lookupTemplate(templateName)
	return ok && entry.Type == categorySticker
}

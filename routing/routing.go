// Package routing maps storefront SKUs to the provider that produces them.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderPrintful = "printful"
	ProviderGelato   = "gelato"
	ProviderPrintify = "printify"
	ProviderManual   = "manual"
	ProviderDigital  = "digital"
)

var (
	ErrUnknownSKU = errors.New("no routing entry for sku")
	ErrNoVariant  = errors.New("no provider variant for size")
)

// VariantID accepts both numbers and strings in the routing document.
type VariantID string

func (v *VariantID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = VariantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("variant id: %w", err)
	}
	*v = VariantID(n.String())
	return nil
}

func (v *VariantID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("variant id must be a scalar, line %d", node.Line)
	}
	*v = VariantID(node.Value)
	return nil
}

// Int returns the numeric form used by Printful.
func (v VariantID) Int() (int64, error) {
	return strconv.ParseInt(string(v), 10, 64)
}

type Entry struct {
	SKU            string               `json:"sku" yaml:"sku"`
	Provider       string               `json:"pod_provider" yaml:"pod_provider"`
	DefaultVariant VariantID            `json:"pod_sku,omitempty" yaml:"pod_sku,omitempty"`
	Variants       map[string]VariantID `json:"variant_map,omitempty" yaml:"variant_map,omitempty"`
}

// Route is the resolved destination for one cart line.
type Route struct {
	SKU       string
	Provider  string
	VariantID VariantID
}

// Automated reports whether the provider takes orders over an API.
func (r Route) Automated() bool {
	return r.Provider != ProviderManual && r.Provider != ProviderDigital
}

type Table struct {
	entries map[string]Entry
}

func NewTable(entries []Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		e.Provider = strings.ToLower(strings.TrimSpace(e.Provider))
		t.entries[strings.ToUpper(strings.TrimSpace(e.SKU))] = e
	}
	return t
}

// Lookup resolves sku and size. Sizes are matched case-insensitively. The
// default variant serves lines without a size and entries without a variant
// map; a size the map does not list is ErrNoVariant, never a substitute.
func (t *Table) Lookup(sku, size string) (Route, error) {
	e, ok := t.entries[strings.ToUpper(strings.TrimSpace(sku))]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	r := Route{SKU: e.SKU, Provider: e.Provider}
	size = strings.TrimSpace(size)
	if size == "" || len(e.Variants) == 0 {
		r.VariantID = e.DefaultVariant
	} else {
		for k, v := range e.Variants {
			if strings.EqualFold(k, size) {
				r.VariantID = v
				break
			}
		}
	}
	if r.VariantID == "" && r.Automated() {
		return r, fmt.Errorf("%w: %s size %q", ErrNoVariant, sku, size)
	}
	return r, nil
}

// Entries returns every entry sorted by SKU.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (t *Table) Len() int { return len(t.entries) }

// Parse decodes a routing document. format is "json" or "yaml"; anything
// else is treated as YAML, which also accepts JSON.
func Parse(data []byte, format string) (*Table, error) {
	var entries []Entry
	switch format {
	case "json":
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse routing json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse routing yaml: %w", err)
		}
	}
	return NewTable(entries), nil
}

// Load reads the table from an http(s) URL or a local path.
func Load(ctx context.Context, client *http.Client, location string) (*Table, error) {
	if location == "" {
		return nil, errors.New("routing location not configured")
	}
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read routing table: %w", err)
		}
		return Parse(data, formatOf(location, ""))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch routing table: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch routing table: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}
	return Parse(data, formatOf(location, resp.Header.Get("Content-Type")))
}

// Encode writes the table as JSON or YAML.
func (t *Table) Encode(w io.Writer, format string) error {
	entries := t.Entries()
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(entries)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func formatOf(location, contentType string) string {
	if strings.Contains(contentType, "json") {
		return "json"
	}
	if strings.Contains(contentType, "yaml") {
		return "yaml"
	}
	u := location
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch strings.ToLower(path.Ext(u)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

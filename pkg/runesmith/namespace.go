package runesmith

import (
	"context"
	"regexp"
	"strings"

	"github.com/CTAG07/Runesmith/pkg/document"
)

var (
	defaultRecordDelimiters = []string{`\n`, ",", ";"}
	defaultPairDelimiters   = []string{":", "="}
	defaultRecordPattern    = regexp.MustCompile(strings.Join(defaultRecordDelimiters, "|"))
)

// NamespaceOptions is the parsing configuration of a namespace element.
type NamespaceOptions struct {
	// RecordDelimiters separate key/value records. Each is a regular
	// expression fragment; the fragments are joined as alternatives.
	RecordDelimiters []string
	// PairDelimiters separate a key from its value. The first one found in a
	// record wins.
	PairDelimiters []string
	// Overwrite lets a record replace a key that is already defined.
	Overwrite bool
}

// NamespaceOptionsFor reads the delimiter, pair and overwrite attributes of
// el, falling back to newline/comma/semicolon records, colon/equals pairs
// and overwriting.
func NamespaceOptionsFor(el *document.Element) NamespaceOptions {
	opts := NamespaceOptions{
		RecordDelimiters: defaultRecordDelimiters,
		PairDelimiters:   defaultPairDelimiters,
		Overwrite:        true,
	}
	if v, ok := el.GetAttribute("delimiter"); ok {
		if fields := strings.Fields(v); len(fields) > 0 {
			opts.RecordDelimiters = fields
		}
	}
	if v, ok := el.GetAttribute("pair"); ok {
		if fields := strings.Fields(v); len(fields) > 0 {
			opts.PairDelimiters = fields
		}
	}
	if v, ok := el.GetAttribute("overwrite"); ok && strings.TrimSpace(v) != "" {
		opts.Overwrite = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return opts
}

// recordPattern joins the record delimiters into one alternation. If the
// fragments do not form a valid expression they are matched literally.
func (o NamespaceOptions) recordPattern() *regexp.Regexp {
	if len(o.RecordDelimiters) == 0 {
		return defaultRecordPattern
	}
	if re, err := regexp.Compile(strings.Join(o.RecordDelimiters, "|")); err == nil {
		return re
	}
	quoted := make([]string, len(o.RecordDelimiters))
	for i, d := range o.RecordDelimiters {
		quoted[i] = regexp.QuoteMeta(d)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

func (o NamespaceOptions) splitPair(record string) (key, value string, ok bool) {
	for _, d := range o.PairDelimiters {
		if i := strings.Index(record, d); i >= 0 {
			return strings.TrimSpace(record[:i]), strings.TrimSpace(record[i+len(d):]), true
		}
	}
	return "", "", false
}

// ParseNamespace adds the key/value pairs defined by a namespace element to ns
// and returns it. A nil ns is replaced by a fresh one. Parsing an element into
// the namespace it already produced leaves that namespace unchanged.
func ParseNamespace(el *document.Element, ns document.Namespace) document.Namespace {
	if ns == nil {
		ns = document.Namespace{}
	}
	opts := NamespaceOptionsFor(el)
	for _, record := range opts.recordPattern().Split(el.InnerText(), -1) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		key, value, ok := opts.splitPair(record)
		if !ok || key == "" {
			continue
		}
		if _, exists := ns[key]; exists && !opts.Overwrite {
			continue
		}
		ns[key] = value
	}
	return ns
}

// inscribeNamespaces is the built-in namespace rune.
func (rs *Runesmith) inscribeNamespaces(ctx context.Context, doc *document.Document) error {
	if doc.Namespace == nil {
		doc.Namespace = document.Namespace{}
	}
	for _, el := range doc.GetElementsByTagName(NamespaceTag) {
		ParseNamespace(el, doc.Namespace)
		// A namespace nested in another one is already gone with its parent.
		_ = doc.RemoveChild(el)
	}
	rs.logger.DebugContext(ctx, "Namespace resolved", "file", currentFile(doc), "keys", len(doc.Namespace))
	return nil
}

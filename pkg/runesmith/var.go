package runesmith

import (
	"context"
	"fmt"
	"strings"

	"github.com/CTAG07/Runesmith/pkg/document"
)

// inscribeVars is the built-in var rune. Namespace values hold decoded text,
// so they are escaped again on the way back into the markup. Keys missing
// from the namespace leave their element untouched.
func (rs *Runesmith) inscribeVars(ctx context.Context, doc *document.Document) error {
	for _, el := range doc.GetElementsByTagName(VarTag) {
		key := strings.TrimSpace(el.InnerText())
		value, ok := doc.Namespace[key]
		if !ok {
			rs.logger.DebugContext(ctx, "Unresolved var left in place", "key", key, "file", currentFile(doc))
			continue
		}
		if err := doc.ReplaceChild(el, doc.CreateTextNode(document.EscapeText(value))); err != nil {
			return fmt.Errorf("replacing var %q: %w", key, err)
		}
	}
	return nil
}

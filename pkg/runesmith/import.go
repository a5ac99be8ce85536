package runesmith

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/CTAG07/Runesmith/pkg/document"
	"github.com/CTAG07/Runesmith/pkg/fsutil"
	"golang.org/x/net/html"
)

// inscribeImports is the built-in import rune. Import elements are resolved
// one at a time, re-querying after each splice because the spliced content
// may carry further imports.
func (rs *Runesmith) inscribeImports(ctx context.Context, doc *document.Document) error {
	if doc.Namespace == nil {
		doc.Namespace = document.Namespace{}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		imports := doc.GetElementsByTagName(ImportTag)
		if len(imports) == 0 {
			return nil
		}
		if err := rs.resolveImport(ctx, doc, imports[0]); err != nil {
			return err
		}
	}
}

func (rs *Runesmith) resolveImport(ctx context.Context, doc *document.Document, el *document.Element) error {
	src, _ := el.GetAttribute("src")
	src = strings.TrimSpace(src)
	if src == "" {
		rs.logger.WarnContext(ctx, "Import without src removed", "file", currentFile(doc))
		return doc.RemoveChild(el)
	}

	path := resolvePath(doc.CurrentDir, src)
	if slices.Contains(doc.FileStack, path) {
		return &CircularImportError{Stack: slices.Clone(doc.FileStack), Path: path}
	}

	doc.FileStack = append(doc.FileStack, path)
	defer func() {
		doc.FileStack = doc.FileStack[:len(doc.FileStack)-1]
	}()

	ns := doc.Namespace
	if rs.GetConfig().IsolateImports {
		ns = ns.Clone()
	}

	rs.logger.DebugContext(ctx, "Resolving import", "file", currentFile(doc), "src", src, "path", path)
	out, err := rs.compile(ctx, compileTask{
		target:     path,
		fileStack:  slices.Clone(doc.FileStack),
		namespace:  ns,
		currentDir: fsutil.Dir(path),
	})
	if err != nil {
		return err
	}

	sub, err := document.Parse(out, doc.Config())
	if err != nil {
		return fmt.Errorf("parsing compiled import %s: %w", path, err)
	}

	override := el.DetachChildren()
	if slots := fillContentSlots(sub, override); slots == 0 && len(override) > 0 {
		rs.logger.DebugContext(ctx, "Import override dropped, no content slot", "file", currentFile(doc), "path", path)
	}

	if err = doc.ReplaceChild(el, sub.DetachChildren()...); err != nil {
		return fmt.Errorf("splicing import %s: %w", path, err)
	}
	return nil
}

// fillContentSlots replaces every content element of sub with the override
// nodes and returns how many slots there were. The first slot takes the nodes
// themselves, later slots get copies.
func fillContentSlots(sub *document.Document, override []*html.Node) int {
	slots := sub.GetElementsByTagName(ContentTag)
	for i, slot := range slots {
		nodes := override
		if i > 0 {
			nodes = make([]*html.Node, len(override))
			for j, n := range override {
				nodes[j] = document.CloneNode(n)
			}
		}
		// Slots nested inside an earlier slot's subtree are gone already.
		_ = sub.ReplaceChild(slot, nodes...)
	}
	return len(slots)
}

package graph

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// analyzer performs the single traversal over a parsed module. It inspects
// only import declarations, named export declarations, and default export
// declarations; every other node is preserved verbatim. Module syntax is
// only legal at the top level, so the traversal visits the root's direct
// children.
type analyzer struct {
	key      string
	source   []byte
	resolver *Resolver

	out     Analysis
	aliases map[string]int // re-export alias names already issued
}

func (a *analyzer) run(root *tree_sitter.Node) *Analysis {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "import_statement":
			a.importDecl(node)
		case "export_statement":
			a.exportDecl(node)
		}
	}
	return &a.out
}

// --- Import declarations ---

func (a *analyzer) importDecl(node *tree_sitter.Node) {
	srcNode := node.ChildByFieldName("source")
	if srcNode == nil {
		return
	}
	specifier := unquote(srcNode.Utf8Text(a.source))

	im := Import{
		Specifier: specifier,
		External:  !Classify(specifier),
		Start:     node.StartByte(),
		End:       node.EndByte(),
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			part := child.NamedChild(j)
			if part == nil {
				continue
			}
			switch part.Kind() {
			case "identifier":
				im.Default = part.Utf8Text(a.source)
			case "namespace_import":
				if id := firstNamedChild(part); id != nil {
					im.Namespace = id.Utf8Text(a.source)
				}
			case "named_imports":
				im.Named = append(im.Named, a.namedList(part, "import_specifier")...)
			}
		}
	}

	requireKey := a.requireKey(&im)
	a.edit(node, strings.Join(bindingStatements(im, requireKey), " "))
	a.out.Imports = append(a.out.Imports, im)
}

// requireKey resolves the emitted table key for an import: the working-
// directory relative form for local specifiers, the specifier as written for
// external ones. An unresolvable local specifier falls back to its raw text
// so the rewrite still happens; the lookup then fails at runtime.
func (a *analyzer) requireKey(im *Import) string {
	if im.External {
		return im.Specifier
	}
	resolved, err := a.resolver.Resolve(a.key, im.Specifier)
	if err != nil {
		return im.Specifier
	}
	im.Resolved = resolved
	return a.resolver.RelKey(resolved)
}

// bindingStatements renders the synchronous module-fetch statements for one
// import declaration, in the order namespace, default, named. Destructuring
// is used only when no named binding renames; a bare side-effect import
// fetches with no binding.
func bindingStatements(im Import, requireKey string) []string {
	req := fmt.Sprintf("require(%q)", requireKey)

	var stmts []string
	if im.Namespace != "" {
		stmts = append(stmts, fmt.Sprintf("const %s = %s;", im.Namespace, req))
	}
	if im.Default != "" {
		stmts = append(stmts, fmt.Sprintf("const %s = %s.default;", im.Default, req))
	}
	if len(im.Named) > 0 {
		renamed := false
		for _, b := range im.Named {
			if b.Imported != b.Local {
				renamed = true
				break
			}
		}
		if renamed {
			for _, b := range im.Named {
				stmts = append(stmts, fmt.Sprintf("const %s = %s;", b.Local, member(req, b.Imported)))
			}
		} else {
			locals := make([]string, len(im.Named))
			for i, b := range im.Named {
				locals[i] = b.Local
			}
			stmts = append(stmts, fmt.Sprintf("const { %s } = %s;", strings.Join(locals, ", "), req))
		}
	}
	if len(stmts) == 0 {
		stmts = append(stmts, req+";")
	}
	return stmts
}

// --- Export declarations ---

func (a *analyzer) exportDecl(node *tree_sitter.Node) {
	// Namespace re-exports are recognized but unsupported: warn, leave the
	// statement untouched.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && (child.Kind() == "*" || child.Kind() == "namespace_export") {
			a.out.Warnings = append(a.out.Warnings, Warning{
				Construct: "export * from",
				Start:     node.StartByte(),
			})
			return
		}
	}

	if hasKeywordChild(node, "default") {
		a.defaultExport(node)
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		a.declarationExport(node, decl)
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "export_clause" {
			a.clauseExport(node, child)
			return
		}
	}
}

// defaultExport handles the three default-export shapes. A named function or
// class declaration is kept in place with its export prefix stripped and a
// trailing assignment appended; identifiers, anonymous declarations, and
// expressions are replaced by an assignment of the payload text.
func (a *analyzer) defaultExport(node *tree_sitter.Node) {
	a.out.Exports.HasDefault = true

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		if name := decl.ChildByFieldName("name"); name != nil {
			a.editRange(node.StartByte(), decl.StartByte(), "")
			a.out.Appends = append(a.out.Appends, fmt.Sprintf("exports.default = %s;", name.Utf8Text(a.source)))
			return
		}
		a.edit(node, fmt.Sprintf("exports.default = %s;", decl.Utf8Text(a.source)))
		return
	}

	if val := node.ChildByFieldName("value"); val != nil {
		a.edit(node, fmt.Sprintf("exports.default = %s;", val.Utf8Text(a.source)))
	}
}

// declarationExport strips the export keyword from a declaration and records
// each declared identifier with a trailing assignment. Destructuring
// declarators record no export.
func (a *analyzer) declarationExport(node, decl *tree_sitter.Node) {
	a.editRange(node.StartByte(), decl.StartByte(), "")

	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			a.exportName(name.Utf8Text(a.source), true)
		}
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			d := decl.NamedChild(i)
			if d == nil || d.Kind() != "variable_declarator" {
				continue
			}
			name := d.ChildByFieldName("name")
			if name == nil || name.Kind() != "identifier" {
				continue
			}
			a.exportName(name.Utf8Text(a.source), true)
		}
	}
}

// clauseExport handles "export { a, b as c }" with or without a source. The
// sourced form fetches through a fresh alias binding and records the source
// as a dependency.
func (a *analyzer) clauseExport(node, clause *tree_sitter.Node) {
	bindings := a.namedList(clause, "export_specifier")

	srcNode := node.ChildByFieldName("source")
	if srcNode == nil {
		var parts []string
		for _, b := range bindings {
			exported := exportedName(b)
			if exported != "default" && a.isSatisfied(exported) {
				// An assignment for this name is already scheduled.
				continue
			}
			parts = append(parts, fmt.Sprintf("exports.%s = %s;", exported, b.Imported))
			a.recordExported(exported)
		}
		a.edit(node, strings.Join(parts, " "))
		return
	}

	specifier := unquote(srcNode.Utf8Text(a.source))
	im := Import{
		Specifier: specifier,
		External:  !Classify(specifier),
		Start:     node.StartByte(),
		End:       node.EndByte(),
	}
	requireKey := a.requireKey(&im)
	alias := a.freshAlias(specifier)

	parts := []string{fmt.Sprintf("const %s = require(%q);", alias, requireKey)}
	for _, b := range bindings {
		exported := exportedName(b)
		parts = append(parts, fmt.Sprintf("exports.%s = %s;", exported, member(alias, b.Imported)))
		a.recordExported(exported)
	}
	a.edit(node, strings.Join(parts, " "))
	a.out.Imports = append(a.out.Imports, im)
}

// --- Bookkeeping ---

// exportName records a named export; withAppend schedules the trailing
// "exports.n = n;" assignment unless one is already satisfied.
func (a *analyzer) exportName(name string, withAppend bool) {
	if !a.out.Exports.Has(name) {
		a.out.Exports.Names = append(a.out.Exports.Names, name)
	}
	if !withAppend || a.isSatisfied(name) {
		return
	}
	a.out.Appends = append(a.out.Appends, fmt.Sprintf("exports.%s = %s;", name, name))
	a.out.Satisfied = append(a.out.Satisfied, name)
}

// recordExported marks a name emitted inline by a clause edit. A clause may
// re-export the default ("export { x as default }").
func (a *analyzer) recordExported(name string) {
	if name == "default" {
		a.out.Exports.HasDefault = true
		return
	}
	if !a.out.Exports.Has(name) {
		a.out.Exports.Names = append(a.out.Exports.Names, name)
	}
	if !a.isSatisfied(name) {
		a.out.Satisfied = append(a.out.Satisfied, name)
	}
}

func (a *analyzer) isSatisfied(name string) bool {
	for _, s := range a.out.Satisfied {
		if s == name {
			return true
		}
	}
	return false
}

// freshAlias derives a unique binding name from a re-export source by
// replacing non-identifier characters with underscores and prefixing. A
// second re-export from the same source gets a numbered suffix.
func (a *analyzer) freshAlias(specifier string) string {
	base := "_" + identSafe(specifier)
	if a.aliases == nil {
		a.aliases = make(map[string]int)
	}
	a.aliases[base]++
	if n := a.aliases[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

func (a *analyzer) edit(node *tree_sitter.Node, replacement string) {
	a.editRange(node.StartByte(), node.EndByte(), replacement)
}

func (a *analyzer) editRange(start, end uint, replacement string) {
	a.out.Edits = append(a.out.Edits, Edit{Start: start, End: end, Replacement: replacement})
}

// namedList collects the (imported, local) pairs from a named_imports or
// export_clause node. specKind selects the specifier child kind.
func (a *analyzer) namedList(node *tree_sitter.Node, specKind string) []NamedBinding {
	var out []NamedBinding
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec == nil || spec.Kind() != specKind {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		b := NamedBinding{Imported: unquote(name.Utf8Text(a.source))}
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			b.Local = unquote(alias.Utf8Text(a.source))
		} else {
			b.Local = b.Imported
		}
		out = append(out, b)
	}
	return out
}

// --- Helpers ---

// exportedName is the name a consumer sees: the alias when present. In an
// export clause the tree-sitter "name" field is the local binding and
// "alias" the exported name, mirrored into NamedBinding as Imported/Local.
func exportedName(b NamedBinding) string { return b.Local }

// member renders property access on obj, using bracket syntax when the name
// is not a plain identifier.
func member(obj, name string) string {
	if isIdentifier(name) {
		return obj + "." + name
	}
	return fmt.Sprintf("%s[%q]", obj, name)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// identSafe maps every non-identifier character of s to an underscore.
func identSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_' || r == '$',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}

func hasKeywordChild(node *tree_sitter.Node, keyword string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == keyword {
			return true
		}
	}
	return false
}

func firstNamedChild(node *tree_sitter.Node) *tree_sitter.Node {
	if node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

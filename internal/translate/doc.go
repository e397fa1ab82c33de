// Package translate holds the content translators selectable per extension
// rule and the registry that names them.
//
// A translator fills target.SourceCode (and optionally target.AST) from the
// file at target.SourceAbsolutePath. For renamed mappings that file is the
// compiler's emitted output, so translators run after the compiler tap.
package translate

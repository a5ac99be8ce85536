// Package document is the markup tree the Runesmith compiler works on.
//
// Parsing is driven by the golang.org/x/net/html tokenizer but skips the
// HTML5 tree-construction rules: elements nest exactly as written, nothing is
// wrapped in html/head/body, and unknown tags such as namespace, import and
// content are ordinary elements. The contents of title and textarea are markup
// too; only script, style and plaintext hold raw text. Text is kept in its
// source form so that stringifying an untouched document reproduces its markup.
package document

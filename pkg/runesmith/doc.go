/*
Package runesmith compiles HTML-like documents by resolving directive tags.

Three directives are built in and always run first, in this order:

	<namespace delimiter="..." pair="..." overwrite="true|false">key: value</namespace>
	<var>key</var>
	<import src="path">override markup</import>

namespace elements define key/value pairs and are removed from the output, var
elements are replaced by the value of their key, and import elements are
replaced by the compiled contents of another file. Inside an imported file a
<content/> element marks where the importing tag's own children go.

Further behaviour is added by registering runes: handlers bound to a tag name
that receive the whole document after the built-in stages have run. Handlers
may be synchronous (HandlerFunc) or asynchronous (AsyncHandlerFunc); the
pipeline waits on each one through the same Future before moving on.

A Runesmith caches raw file contents per absolute path and keeps a compile map
describing every file visited. Both can be reset independently of the
registered runes.
*/
package runesmith

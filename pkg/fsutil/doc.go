/*
Package fsutil holds the path algebra and filesystem access used by the
Runesmith compiler.

Paths are handled segment-wise and accept either slash convention. Resolve
folds segments the way a shell would, MergePaths joins a relative path onto a
base directory at their first shared component, and ResolveToProjectPath
anchors relative paths at the nearest directory holding a project manifest.
Reads go through the FileSystem interface so the compiler can be pointed at
something other than the host disk.
*/
package fsutil

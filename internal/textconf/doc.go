// Package textconf reconciles key/value settings inside INI-like
// configuration files without disturbing anything else in them.
//
// The file format is an INI superset: top-level [section] headers, and
// inside qualifying sections doubly-bracketed [[name]] sub-blocks (the
// sabnzbd.ini layout). Comments, blank lines, and unknown lines are
// preserved verbatim.
//
// The package works in three stages. A tokenizer classifies each line
// (section header, sub-block header, key = value, other). Parse builds a
// Section/SubBlock tree of line spans over the tokenized lines. Patch
// operations (EnsureSection, EnsureSubBlock, MergeListKey) mutate the tree
// by splicing line spans, and Render joins the lines back into file text.
// Keeping the boundary detection in the tokenizer means every patch
// operation shares one definition of where a section or block ends.
//
// Malformed structure never fails a patch: a header the tokenizer does not
// recognize is just an ordinary line, so the target section appears absent
// and the patch falls back to creating it. Hand-edited files stay usable.
//
// File handles the write discipline: if the rendered output is
// byte-identical to what was read, nothing is written; otherwise the prior
// content is saved to <path>.bak and the file is replaced via a temp file
// and rename.
package textconf

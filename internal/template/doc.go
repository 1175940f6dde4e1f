// Package template implements C3 TemplateEngine: a minimal placeholder
// substitution grammar used to turn an encoder argv template or a
// frame-server script template into the concrete strings a tool
// invocation needs.
package template

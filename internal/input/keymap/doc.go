// Package keymap holds the configured key bindings: the unscoped
// default table, named key tables, and the leader key definition. The
// registry is read-only to the dispatcher and loadable from JSON or Lua
// configuration.
package keymap

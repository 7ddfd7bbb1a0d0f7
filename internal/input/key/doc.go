// Package key defines the canonical key and modifier model for input
// dispatch: modifier bitsets, the Code sum type covering characters,
// named keys, function keys, physical positions, raw platform codes and
// composed text, and the pure mapper that resolves a platform code to
// its terminal form.
package key

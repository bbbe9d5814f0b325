// Package trash moves files to the platform recycle facility so cleanups
// stay reversible. Hard deletion is the caller's explicit fallback, never
// the default here.
package trash

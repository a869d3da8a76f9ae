// Package publish hands a reviewed schedule off to the external publish
// store. The core treats the store call as all-or-nothing; when the store
// itself only supports partial success, the failed subset is surfaced
// rather than silently dropped.
package publish

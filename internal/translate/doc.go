// Package translate maps abstract pipeline state onto hardware encodings.
//
// Every function here is total over its input domain and free of side
// effects. Out-of-domain values map to zero; they indicate a bug in the
// caller, not bad user input. Generation-dependent encodings are table
// lookups selected by a capability flag from hw.Caps.
package translate

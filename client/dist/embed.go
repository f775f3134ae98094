// Package clientdist embeds the Auralens thin client.
package clientdist

import _ "embed"

// AuralensJS is the thin client JavaScript.
//
// It is served by the server at "/_auralens/client.js".
//
//go:embed auralens.js
var AuralensJS []byte

// Package grapht resolves context-sensitive dependency graphs. It narrows
// abstract requests into concrete construction recipes using bind rules
// scoped to where in the construction tree each request occurs.
package grapht

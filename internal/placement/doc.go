// Package placement defines the data model shared by the pipeline stages,
// the HTTP layer, and the catalog store.
//
// Every record produced after scene generation carries a SceneID; that
// identifier is the only correlation key threading state across stages.
// Concurrent stage execution reorders and drops items freely, so nothing in
// this package (or its consumers) may rely on positional correspondence
// between input and output slices.
package placement

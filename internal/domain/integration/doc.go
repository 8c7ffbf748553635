// Package integration contains the shop integration context: which shops
// are connected, how their webhooks are signed and how platform products
// map onto local products.
//
// Key concepts:
//   - Shop: a connected store and its integration type
//   - ProductMapping: platform product/variant to local product
package integration

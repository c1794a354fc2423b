// Package measure is the registry of every similarity and distance
// coefficient in this module. It resolves canonical names and historical
// aliases to evaluable measures and groups them by kind and family, which
// is what the HTTP catalog endpoint and the CLI render.
package measure

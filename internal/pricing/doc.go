// Package pricing turns the payloads of many content sources into one
// grouped list of pricing packages.
//
// A run has three stages:
//   - Fetcher issues one fetch per package-bearing service, bounded by a
//     concurrency limit, and waits for every fetch to settle. A failing
//     source yields an empty list and a warning, never an error.
//   - Normalizer maps each raw item located by the envelope package onto
//     Package, taking field aliases in a fixed order.
//   - Aggregator drops unnamed and inactive packages and groups the rest by
//     service in registry order, with counts and a price summary.
//
// Service ties the stages together; SelectCategory picks one category (or
// "all") out of a Result.
package pricing

// Package integration contains the Integration bounded context.
// This context manages the connection to the external marketplace listings are imported from.
//
// Key concepts:
//   - ListingFetcher: Port interface for retrieving a normalized listing by its public URL
//   - ScrapedListing: Value object carrying the raw listing data returned by the marketplace
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration

// Package catalog provides the client for the Catalog Query Service.
//
// Endpoints:
//   - GET /offers?page&limit&q&brand&make&model&year returns {data, totalPages}
//   - GET /offers/{sku} returns one product detail
//
// Failed queries surface as *APIError (non-2xx) or *ContentTypeError (body
// not decodable). Query errors are not retried unless WithRetries is given.
package catalog

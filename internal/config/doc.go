// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// CATALOG_API_URL, when set, overrides api.base_url. An empty base URL
// disables streaming; views still load from the catalog service.
package config

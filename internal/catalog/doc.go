// Package catalog holds the service registry: the static, ordered list of
// agency services whose pricing packages are aggregated.
//
// A registry is built once at startup, either in code with New or from a
// catalog file with LoadFile + Bind, and is immutable afterwards. Registry
// order is the category display order.
//
// Catalog files may be YAML, TOML or JSON:
//
//	services:
//	  - id: seo
//	    name: Search Engine Optimization
//	    endpoint: /seo/page/
//	    has_packages: true
//	  - id: custom-software
//	    name: Custom Software
//	    redirect: /contact
package catalog

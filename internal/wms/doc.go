// Package wms drives the warehouse management site: inbound receipts,
// outbound orders, and inventory exports.
package wms
